package digest

import (
	"testing"

	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
)

func TestStateDigest_SameStreamSameDigest(t *testing.T) {
	a := economy.NewPlayer(economy.DefaultConfig())
	b := economy.NewPlayer(economy.DefaultConfig())
	if StateDigest(a) != StateDigest(b) {
		t.Fatalf("fresh players should hash equal")
	}
	stream := []int{0, 0, 3, 4, 0, 0, 0, 5, 2, 1, 0, 3, 6}
	for i, id := range stream {
		if _, err := actions.Apply(a, id); err != nil {
			t.Fatalf("apply a: %v", err)
		}
		if _, err := actions.Apply(b, id); err != nil {
			t.Fatalf("apply b: %v", err)
		}
		da, db := StateDigest(a), StateDigest(b)
		if da != db {
			t.Fatalf("digest mismatch at step %d: %s vs %s", i, da, db)
		}
		if len(da) != 64 {
			t.Fatalf("expected hex sha256, got %q", da)
		}
	}
}

func TestStateDigest_DetectsChanges(t *testing.T) {
	p := economy.NewPlayer(economy.DefaultConfig())
	d0 := StateDigest(p)
	p.AdvanceDay()
	d1 := StateDigest(p)
	if d0 == d1 {
		t.Fatalf("digest should change after a day")
	}
	p.Colonies()[0].CrystalMine().Upgrade()
	if StateDigest(p) == d1 {
		t.Fatalf("digest should change after an upgrade")
	}
}

func TestStateDigest_SurvivesRestore(t *testing.T) {
	cfg := economy.DefaultConfig()
	p := economy.NewPlayer(cfg)
	for _, id := range []int{0, 0, 0, 3, 0, 4, 0, 0, 5} {
		if _, err := actions.Apply(p, id); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	q, err := economy.Restore(cfg, p.State())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if StateDigest(p) != StateDigest(q) {
		t.Fatalf("restored player hashes differently")
	}
}
