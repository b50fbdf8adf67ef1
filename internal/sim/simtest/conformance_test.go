package simtest

import (
	"math/rand"
	"testing"

	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
	"ogamesim/internal/sim/policy"
)

func TestClosedForms_MatchOracle(t *testing.T) {
	temps := []float64{-115, -40, 20, 400}
	for level := 0; level < 70; level++ {
		for slot, kind := range economy.MineKinds {
			for _, temp := range temps {
				got := economy.MineProduction(kind, level, temp).Array()
				if want := production(slot, level, temp); got != want {
					t.Fatalf("%s L%d T%v production: got %v want %v", kind, level, temp, got, want)
				}
			}
			if got, want := economy.MineUpgradeCost(kind, level).Array(), mineCost(slot, level); got != want {
				t.Fatalf("%s L%d cost: got %v want %v", kind, level, got, want)
			}
		}
	}
	for level := 0; level < 46; level++ {
		if got, want := economy.AstrophysicsUpgradeCost(level).Array(), astroCost(level); got != want {
			t.Fatalf("astrophysics L%d cost: got %v want %v", level, got, want)
		}
	}
	for level := 0; level < 40; level++ {
		if got, want := economy.PlasmaUpgradeCost(level).Array(), plasmaCost(level); got != want {
			t.Fatalf("plasma L%d cost: got %v want %v", level, got, want)
		}
		m := economy.PlasmaModifier(level)
		if got, want := [3]float64{m.Metal, m.Crystal, m.Deuterium}, plasmaModifier(level); got != want {
			t.Fatalf("plasma L%d modifier: got %v want %v", level, got, want)
		}
	}
}

// conform drives the core and the oracle with the same ids and compares them after every step.
func conform(t *testing.T, cfg economy.Config, steps int, next func(p *economy.Player) int) *economy.Player {
	t.Helper()
	p := economy.NewPlayer(cfg)
	o := NewOracle(cfg)
	for i := 0; i < steps; i++ {
		id := next(p)
		res, err := actions.Apply(p, id)
		if err != nil {
			t.Fatalf("step %d id %d: %v", i, id, err)
		}
		reward, code := o.Step(id)
		if res.Reward != reward || res.Code != code {
			t.Fatalf("step %d id %d: core (%v,%q) oracle (%v,%q)", i, id, res.Reward, res.Code, reward, code)
		}
		if got := p.Resources().Array(); got != o.Resources {
			t.Fatalf("step %d id %d resources: core %v oracle %v", i, id, got, o.Resources)
		}
		if p.Points() != o.Points || p.Day() != o.Day {
			t.Fatalf("step %d: points/day core %v/%d oracle %v/%d", i, p.Points(), p.Day(), o.Points, o.Day)
		}
		if p.Astrophysics().Level() != o.Astro || p.Plasma().Level() != o.Plasma {
			t.Fatalf("step %d: astro/plasma core %d/%d oracle %d/%d", i,
				p.Astrophysics().Level(), p.Plasma().Level(), o.Astro, o.Plasma)
		}
		if got, want := p.TotalProduction().Array(), o.Production(); got != want {
			t.Fatalf("step %d production: core %v oracle %v", i, got, want)
		}
		if len(p.Colonies()) != len(o.Levels) {
			t.Fatalf("step %d colonies: core %d oracle %d", i, len(p.Colonies()), len(o.Levels))
		}
		for ci, c := range p.Colonies() {
			got := [3]int{c.MetalMine().Level(), c.CrystalMine().Level(), c.DeuteriumSynthesizer().Level()}
			if got != o.Levels[ci] {
				t.Fatalf("step %d colony %d levels: core %v oracle %v", i, ci, got, o.Levels[ci])
			}
		}
	}
	return p
}

func TestConformance_RandomStreams(t *testing.T) {
	cfg := economy.DefaultConfig()
	n := actions.Count(cfg.MaxColonySlots)
	for _, seed := range []int64{1, 2, 3} {
		rng := rand.New(rand.NewSource(seed))
		conform(t, cfg, 3000, func(*economy.Player) int {
			// Mostly waits so upgrades become affordable.
			if rng.Intn(2) == 0 {
				return actions.ActionWait
			}
			return rng.Intn(n)
		})
	}
}

func TestConformance_GreedyStream(t *testing.T) {
	g := policy.NewGreedyROI()
	p := conform(t, economy.DefaultConfig(), 3000, g.Act)
	if len(p.Colonies()) < 5 {
		t.Fatalf("greedy stream should unlock colonies, got %d", len(p.Colonies()))
	}
}

func TestConformance_SmallLedgerAndHotColonies(t *testing.T) {
	cfg := economy.Config{
		MaxColonySlots:       3,
		ColonyMaxTemperature: 400,
		Exploration:          economy.ExplorationConfig{BucketSize: 0.5, ScoreCap: 50, MaxValue: 10},
	}
	rng := rand.New(rand.NewSource(11))
	n := actions.Count(cfg.MaxColonySlots)
	p := conform(t, cfg, 2000, func(*economy.Player) int {
		if rng.Intn(3) == 0 {
			return actions.ActionWait
		}
		return rng.Intn(n)
	})
	if len(p.Ledger().RedeemedBuckets()) == 0 {
		t.Fatalf("expected some exploration buckets redeemed")
	}
}
