package actions

import (
	"errors"
	"math"
	"testing"

	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/economy"
)

func nearly(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestDecode(t *testing.T) {
	cases := []struct {
		id   int
		want Target
	}{
		{0, Target{Kind: KindWait}},
		{1, Target{Kind: KindAstrophysics}},
		{2, Target{Kind: KindPlasmaTechnology}},
		{3, Target{Kind: KindMine, Colony: 0, Mine: economy.MetalMine}},
		{4, Target{Kind: KindMine, Colony: 0, Mine: economy.CrystalMine}},
		{5, Target{Kind: KindMine, Colony: 0, Mine: economy.DeuteriumSynthesizer}},
		{6, Target{Kind: KindMine, Colony: 1, Mine: economy.MetalMine}},
		{62, Target{Kind: KindMine, Colony: 19, Mine: economy.DeuteriumSynthesizer}},
	}
	for _, c := range cases {
		got, err := Decode(c.id, 20)
		if err != nil {
			t.Fatalf("decode %d: %v", c.id, err)
		}
		if got != c.want {
			t.Fatalf("decode %d: got %+v want %+v", c.id, got, c.want)
		}
		if back := Encode(got); back != c.id {
			t.Fatalf("encode(decode(%d)) = %d", c.id, back)
		}
	}
	if Count(20) != 63 {
		t.Fatalf("expected 63 actions for 20 slots, got %d", Count(20))
	}
	for _, id := range []int{-1, 63, 1000} {
		if _, err := Decode(id, 20); !errors.Is(err, ErrActionOutOfRange) {
			t.Fatalf("decode %d: expected ErrActionOutOfRange, got %v", id, err)
		}
	}
}

func TestTargetString(t *testing.T) {
	if got := (Target{Kind: KindMine, Colony: 2, Mine: economy.CrystalMine}).String(); got != "colony[2].CRYSTAL_MINE" {
		t.Fatalf("unexpected target string %q", got)
	}
}

func TestApply_Scenario(t *testing.T) {
	p := economy.NewPlayer(economy.DefaultConfig())

	res, err := Apply(p, ActionWait)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Reward != WaitReward || res.Terminal || res.Code != "" {
		t.Fatalf("wait result: %+v", res)
	}
	if p.Day() != 1 || p.Resources() != (economy.Resources{Metal: 720, Crystal: 360}) {
		t.Fatalf("after wait: day=%d res=%+v", p.Day(), p.Resources())
	}

	res, _ = Apply(p, 3)
	if res.Code != "" || !nearly(res.Reward, 0.031408464251624114) {
		t.Fatalf("metal upgrade result: %+v", res)
	}
	if p.Colonies()[0].MetalMine().Level() != 1 {
		t.Fatalf("metal mine should be level 1")
	}
	if p.Resources() != (economy.Resources{Metal: 1350}) || !nearly(p.Points(), 0.075) {
		t.Fatalf("after metal upgrade: res=%+v points=%v", p.Resources(), p.Points())
	}

	res, _ = Apply(p, 6)
	if res.Reward != Penalty || res.Code != protocol.ErrInvalidTarget {
		t.Fatalf("locked colony: %+v", res)
	}
	res, _ = Apply(p, ActionPlasmaTechnology)
	if res.Reward != Penalty || res.Code != protocol.ErrNoResource {
		t.Fatalf("unaffordable plasma: %+v", res)
	}
	if p.Resources() != (economy.Resources{Metal: 1350}) || p.Plasma().Level() != 0 {
		t.Fatalf("failed actions must not mutate: res=%+v", p.Resources())
	}

	for i := 0; i < 30; i++ {
		if _, err := Apply(p, ActionWait); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if p.Resources() != (economy.Resources{Metal: 25110, Crystal: 10800}) || p.Day() != 31 {
		t.Fatalf("after 30 waits: day=%d res=%+v", p.Day(), p.Resources())
	}

	res, _ = Apply(p, ActionAstrophysics)
	if res.Code != "" || !nearly(res.Reward, 1.2304489213782739) {
		t.Fatalf("astrophysics: %+v", res)
	}
	if p.Resources() != (economy.Resources{Metal: 14710}) || !nearly(p.Points(), 16.075) {
		t.Fatalf("after astrophysics: res=%+v points=%v", p.Resources(), p.Points())
	}

	res, _ = Apply(p, ActionPlasmaTechnology)
	if res.Code != "" || !nearly(res.Reward, 0.9030899869919435) {
		t.Fatalf("plasma: %+v", res)
	}
	if got := p.TotalProduction(); got != (economy.Resources{Metal: 1527, Crystal: 724}) {
		t.Fatalf("production with two colonies and plasma 1: %+v", got)
	}

	res, _ = Apply(p, 6)
	if res.Code != "" || !nearly(res.Reward, 0.031408464251623844) {
		t.Fatalf("second colony metal: %+v", res)
	}
	if p.Colonies()[1].MetalMine().Level() != 1 || p.Resources() != (economy.Resources{Metal: 1620}) {
		t.Fatalf("after second colony upgrade: res=%+v", p.Resources())
	}
}

func TestApply_OutOfRangeDoesNotMutate(t *testing.T) {
	p := economy.NewPlayer(economy.DefaultConfig())
	if _, err := Apply(p, Count(20)); !errors.Is(err, ErrActionOutOfRange) {
		t.Fatalf("expected ErrActionOutOfRange, got %v", err)
	}
	if p.Day() != 0 || p.Resources() != economy.Zero() {
		t.Fatalf("out of range action mutated the player")
	}
}

func TestApply_ExplorationBonusOncePerBucket(t *testing.T) {
	cfg := economy.DefaultConfig()
	cfg.Exploration.BucketSize = 0.05
	cfg.Exploration.ScoreCap = 3
	p := economy.NewPlayer(cfg)
	p.AddResources(economy.Resources{Metal: 1000})

	// 0.075 points lands in bucket 1.
	res, _ := Apply(p, 3)
	wantBonus := cfg.Exploration.MaxValue / 60
	if !nearly(res.Reward, math.Log10(1.075)+wantBonus) {
		t.Fatalf("first upgrade reward %v", res.Reward)
	}
	if !p.Ledger().Redeemed(1) {
		t.Fatalf("bucket 1 should be redeemed")
	}
}

func TestApply_ZeroSlotConfig(t *testing.T) {
	cfg := economy.DefaultConfig()
	cfg.MaxColonySlots = 0
	p := economy.NewPlayer(cfg)
	p.AddResources(economy.Resources{Metal: 1e9})
	n := Count(p.MaxColonySlots())
	if n != 6 {
		t.Fatalf("expected 6 actions, got %d", n)
	}
	for id := 0; id < n; id++ {
		if _, err := Apply(p, id); err != nil {
			t.Fatalf("action %d: %v", id, err)
		}
	}
	for i := 0; i < 5; i++ {
		if _, err := Apply(p, ActionAstrophysics); err != nil {
			t.Fatalf("astrophysics: %v", err)
		}
	}
	if len(p.Colonies()) != 1 {
		t.Fatalf("expected one colony, got %d", len(p.Colonies()))
	}
	if _, err := Apply(p, n); !errors.Is(err, ErrActionOutOfRange) {
		t.Fatalf("expected ErrActionOutOfRange for %d, got %v", n, err)
	}
}
