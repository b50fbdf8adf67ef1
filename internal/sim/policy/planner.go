package policy

import (
	"math"
	"strconv"

	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
)

// DefaultPlannerHorizon is the lookahead ByName gives the planner.
const DefaultPlannerHorizon = 4

// Planner looks Horizon steps ahead, searching every useful action sequence
// on cloned players, and plays the first action of the sequence that ends
// with the most points.
//
// Only waits and affordable upgrades are expanded: an unaffordable upgrade
// or a locked colony burns a step without changing state, which a wait
// never does worse than. With PaybackPruning an upgrade is also skipped when
// its weighted cost is not repaid by its weighted daily gain within the
// remaining steps. Subtrees are memoized on everything that shapes future
// points, which excludes the current score, the day and the exploration
// ledger.
type Planner struct {
	Horizon        int
	PaybackPruning bool

	memo map[string]float64
	key  []byte

	// Expanded counts states searched by the last Search call.
	Expanded int
}

func NewPlanner(horizon int, paybackPruning bool) *Planner {
	if horizon < 1 {
		horizon = 1
	}
	return &Planner{Horizon: horizon, PaybackPruning: paybackPruning}
}

func (pl *Planner) Name() string { return "planner" }

func (pl *Planner) Act(p *economy.Player) int {
	_, id := pl.Search(p, pl.Horizon)
	return id
}

// Search returns the most points reachable from p within horizon steps and
// the first action of a sequence reaching them. p is not modified.
func (pl *Planner) Search(p *economy.Player, horizon int) (float64, int) {
	pl.memo = make(map[string]float64)
	pl.Expanded = 0
	if horizon < 1 {
		return p.Points(), actions.ActionWait
	}
	gain, id := pl.best(p.Clone(), horizon)
	return p.Points() + gain, id
}

// best returns the largest points gain within remaining steps and the action
// that starts it. Ties keep the lowest action id, so waiting wins a tie.
func (pl *Planner) best(p *economy.Player, remaining int) (float64, int) {
	pl.Expanded++
	bestGain, bestID := math.Inf(-1), actions.ActionWait
	for _, id := range pl.moves(p, remaining) {
		next := p.Clone()
		before := next.Points()
		if _, err := actions.Apply(next, id); err != nil {
			continue
		}
		g := next.Points() - before + pl.value(next, remaining-1)
		if g > bestGain {
			bestGain, bestID = g, id
		}
	}
	return bestGain, bestID
}

func (pl *Planner) value(p *economy.Player, remaining int) float64 {
	if remaining <= 0 {
		return 0
	}
	pl.key = appendStateKey(pl.key[:0], p, remaining)
	if v, ok := pl.memo[string(pl.key)]; ok {
		return v
	}
	k := string(pl.key)
	v, _ := pl.best(p, remaining)
	pl.memo[k] = v
	return v
}

// moves lists the actions worth expanding, wait first.
func (pl *Planner) moves(p *economy.Player, remaining int) []int {
	p.EnsureColonies()
	res := p.Resources()
	out := []int{actions.ActionWait}
	consider := func(id int, cost, gain economy.Resources) {
		if !res.CanAfford(cost) {
			return
		}
		if pl.PaybackPruning && Payback(cost, gain) > float64(remaining) {
			return
		}
		out = append(out, id)
	}

	consider(actions.ActionAstrophysics, p.Astrophysics().UpgradeCost(), economy.Zero())
	plasma := p.Plasma()
	mineSum := p.MineProduction()
	plasmaGain := mineSum.Scale(plasma.UpgradedModifier()).Sub(mineSum.Scale(plasma.Modifier()))
	consider(actions.ActionPlasmaTechnology, plasma.UpgradeCost(), plasmaGain)
	for ci, c := range p.Colonies() {
		for _, k := range economy.MineKinds {
			m := c.Mine(k)
			id := actions.Encode(actions.Target{Kind: actions.KindMine, Colony: ci, Mine: k})
			consider(id, m.UpgradeCost(), m.UpgradeIncreasePerDay())
		}
	}
	return out
}

// Payback is the number of days an upgrade's daily gain takes to repay its
// cost, both weighted. It is +Inf when nothing is gained.
func Payback(cost, gain economy.Resources) float64 {
	g := gain.WeightedValue()
	if g <= 0 {
		return math.Inf(1)
	}
	return cost.WeightedValue() / g
}

func appendStateKey(b []byte, p *economy.Player, remaining int) []byte {
	r := p.Resources()
	b = strconv.AppendInt(b, int64(remaining), 10)
	for _, v := range []float64{r.Metal, r.Crystal, r.Deuterium} {
		b = append(b, '|')
		b = strconv.AppendUint(b, math.Float64bits(v), 16)
	}
	b = append(b, '|')
	b = strconv.AppendInt(b, int64(p.Astrophysics().Level()), 10)
	b = append(b, '|')
	b = strconv.AppendInt(b, int64(p.Plasma().Level()), 10)
	for _, c := range p.Colonies() {
		b = append(b, ';')
		for _, k := range economy.MineKinds {
			b = strconv.AppendInt(b, int64(c.Mine(k).Level()), 10)
			b = append(b, ',')
		}
	}
	return b
}
