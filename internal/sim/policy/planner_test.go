package policy

import (
	"math"
	"testing"

	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
)

func smallConfig() economy.Config {
	cfg := economy.DefaultConfig()
	cfg.MaxColonySlots = 2
	return cfg
}

// exhaustive tries every id in the action space, locked colonies and
// unaffordable upgrades included.
func exhaustive(t *testing.T, p *economy.Player, depth int) float64 {
	t.Helper()
	if depth == 0 {
		return p.Points()
	}
	best := math.Inf(-1)
	for id := 0; id < actions.Count(p.MaxColonySlots()); id++ {
		next := p.Clone()
		if _, err := actions.Apply(next, id); err != nil {
			t.Fatalf("apply %d: %v", id, err)
		}
		if v := exhaustive(t, next, depth-1); v > best {
			best = v
		}
	}
	return best
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func startStates(t *testing.T) map[string]*economy.Player {
	fresh := economy.NewPlayer(smallConfig())

	mid := economy.NewPlayer(smallConfig())
	run(t, NewGreedyROI(), mid, 200)

	rich := economy.NewPlayer(smallConfig())
	rich.AddResources(economy.Resources{Metal: 60_000, Crystal: 20_000, Deuterium: 5_000})
	rich.Astrophysics().Upgrade()
	rich.EnsureColonies()

	return map[string]*economy.Player{"fresh": fresh, "mid": mid, "rich": rich}
}

func TestPlanner_MatchesExhaustiveSearch(t *testing.T) {
	for name, p := range startStates(t) {
		for depth := 1; depth <= 4; depth++ {
			want := exhaustive(t, p, depth)
			pl := NewPlanner(depth, false)
			got, first := pl.Search(p, depth)
			if !closeTo(got, want) {
				t.Fatalf("%s depth %d: planner %v exhaustive %v", name, depth, got, want)
			}
			next := p.Clone()
			if _, err := actions.Apply(next, first); err != nil {
				t.Fatalf("%s depth %d: first action %d: %v", name, depth, first, err)
			}
			if rest := exhaustive(t, next, depth-1); !closeTo(rest, want) {
				t.Fatalf("%s depth %d: first action %d reaches %v, best is %v", name, depth, first, rest, want)
			}
		}
	}
}

func TestPlanner_SearchLeavesPlayerUntouched(t *testing.T) {
	p := startStates(t)["rich"]
	before := p.State()
	NewPlanner(3, true).Search(p, 3)
	after := p.State()
	if after.Resources != before.Resources || after.Points != before.Points || after.Day != before.Day ||
		after.PlasmaLevel != before.PlasmaLevel || after.AstrophysicsLevel != before.AstrophysicsLevel {
		t.Fatalf("search mutated the player: %+v -> %+v", before, after)
	}
}

func TestPlanner_HorizonTwoFromFreshStart(t *testing.T) {
	for _, pruning := range []bool{false, true} {
		got, first := NewPlanner(2, pruning).Search(economy.NewPlayer(economy.DefaultConfig()), 2)
		// Wait one day, then buy the deuterium synthesizer (225+75 raw).
		if !closeTo(got, 0.3) || first != actions.ActionWait {
			t.Fatalf("pruning=%v: got points %v first %d", pruning, got, first)
		}
	}
	if got, _ := NewPlanner(1, true).Search(economy.NewPlayer(economy.DefaultConfig()), 1); got != 0 {
		t.Fatalf("one step from a fresh start cannot score, got %v", got)
	}
}

func TestPlanner_PaybackPruning(t *testing.T) {
	p := economy.NewPlayer(economy.DefaultConfig())
	p.AddResources(economy.Resources{Metal: 1e9})
	pl := NewPlanner(1, true)
	if got := pl.moves(p, 0); len(got) != 1 || got[0] != actions.ActionWait {
		t.Fatalf("no upgrade pays back in zero days, got %v", got)
	}
	got := pl.moves(p, 1)
	for _, id := range got {
		if id == actions.ActionAstrophysics {
			t.Fatalf("astrophysics has no daily gain and must be pruned: %v", got)
		}
	}
	// Deuterium 375/1440 and crystal 96/336 repay within a day, metal 90/72 does not.
	want := []int{actions.ActionWait, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("moves within one day: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moves within one day: got %v want %v", got, want)
		}
	}
	if full := NewPlanner(1, false).moves(p, 1); len(full) != 6 {
		t.Fatalf("without pruning every affordable upgrade is a move, got %v", full)
	}

	for name, s := range startStates(t) {
		pruned := NewPlanner(4, true)
		full := NewPlanner(4, false)
		a, _ := pruned.Search(s, 4)
		b, _ := full.Search(s, 4)
		if a > b && !closeTo(a, b) {
			t.Fatalf("%s: pruned search %v beat the full search %v", name, a, b)
		}
		if pruned.Expanded > full.Expanded {
			t.Fatalf("%s: pruning expanded more states (%d > %d)", name, pruned.Expanded, full.Expanded)
		}
	}
	if !math.IsInf(Payback(economy.Resources{Metal: 1}, economy.Zero()), 1) {
		t.Fatalf("zero gain should never pay back")
	}
}

func TestPlanner_MemoKeyIgnoresScore(t *testing.T) {
	p := economy.NewPlayer(economy.DefaultConfig())
	p.AddResources(economy.Resources{Metal: 1375})
	if !p.TrySpend(p.Colonies()[0].DeuteriumSynthesizer().UpgradeCost()) {
		t.Fatalf("deuterium synthesizer should be affordable")
	}
	p.Colonies()[0].DeuteriumSynthesizer().Upgrade()

	q := economy.NewPlayer(economy.DefaultConfig())
	q.AddResources(economy.Resources{Metal: 1000})
	q.Colonies()[0].DeuteriumSynthesizer().Upgrade()

	if p.Points() == q.Points() {
		t.Fatalf("players should differ in score")
	}
	a := string(appendStateKey(nil, p, 3))
	if b := string(appendStateKey(nil, q, 3)); b != a {
		t.Fatalf("score changed the key: %q vs %q", a, b)
	}
	if c := string(appendStateKey(nil, p, 2)); c == a {
		t.Fatalf("remaining steps must be part of the key")
	}
	q.Plasma().Upgrade()
	if d := string(appendStateKey(nil, q, 3)); d == a {
		t.Fatalf("technology level must be part of the key")
	}
}

func TestPlanner_PlaysDeterministically(t *testing.T) {
	a := run(t, NewPlanner(DefaultPlannerHorizon, true), economy.NewPlayer(economy.DefaultConfig()), 300)
	p := economy.NewPlayer(economy.DefaultConfig())
	b := run(t, NewPlanner(DefaultPlannerHorizon, true), p, 300)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverged at step %d", i)
		}
	}
	if p.Points() <= 0 {
		t.Fatalf("planner never scored")
	}
	if p.Astrophysics().Level() != 0 || len(p.Colonies()) != 1 {
		t.Fatalf("payback pruning never values astrophysics: level=%d colonies=%d", p.Astrophysics().Level(), len(p.Colonies()))
	}
}
