package policy

import (
	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
)

// GreedyROI picks the upgrade with the lowest weighted cost per weighted
// daily gain and waits until it is affordable.
//
// Astrophysics is valued as a macro: the levels that unlock the next colony
// plus bringing that colony's mines up to colony 0, against colony 0's output.
// Once started, a macro is played out one action per call.
type GreedyROI struct {
	player *economy.Player
	queue  []int
}

func NewGreedyROI() *GreedyROI { return &GreedyROI{} }

func (g *GreedyROI) Name() string { return "greedy" }

func (g *GreedyROI) Act(p *economy.Player) int {
	if p != g.player {
		g.player = p
		g.queue = g.queue[:0]
	}
	if len(g.queue) > 0 {
		id := g.queue[0]
		g.queue = g.queue[1:]
		return id
	}
	best, ok := bestCandidate(p)
	if !ok || !p.Resources().CanAfford(best.cost) {
		return actions.ActionWait
	}
	g.queue = append(g.queue, best.actions[1:]...)
	return best.actions[0]
}

type candidate struct {
	actions []int
	cost    economy.Resources
	gain    economy.Resources
}

func (c candidate) roi() float64 {
	return c.cost.WeightedValue() / c.gain.WeightedValue()
}

func bestCandidate(p *economy.Player) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range candidates(p) {
		if c.gain.WeightedValue() <= 0 {
			continue
		}
		if !found || c.roi() < best.roi() {
			best = c
			found = true
		}
	}
	return best, found
}

func candidates(p *economy.Player) []candidate {
	p.EnsureColonies()
	colonies := p.Colonies()
	out := make([]candidate, 0, 3*len(colonies)+2)

	for ci, c := range colonies {
		for _, k := range economy.MineKinds {
			m := c.Mine(k)
			id := actions.Encode(actions.Target{Kind: actions.KindMine, Colony: ci, Mine: k})
			out = append(out, candidate{actions: []int{id}, cost: m.UpgradeCost(), gain: m.UpgradeIncreasePerDay()})
		}
	}

	plasma := p.Plasma()
	mineSum := p.MineProduction()
	out = append(out, candidate{
		actions: []int{actions.ActionPlasmaTechnology},
		cost:    plasma.UpgradeCost(),
		gain:    mineSum.Scale(plasma.UpgradedModifier()).Sub(mineSum.Scale(plasma.Modifier())),
	})

	if c, ok := astrophysicsMacro(p); ok {
		out = append(out, c)
	}
	return out
}

func astrophysicsMacro(p *economy.Player) (candidate, bool) {
	colonies := p.Colonies()
	maxSlots := p.MaxColonySlots()
	if len(colonies) >= maxSlots {
		return candidate{}, false
	}
	level := p.Astrophysics().Level()
	var c candidate
	for l := level; economy.RequiredColonies(l, maxSlots) <= len(colonies); l++ {
		c.cost = c.cost.Add(economy.AstrophysicsUpgradeCost(l))
		c.actions = append(c.actions, actions.ActionAstrophysics)
	}

	template := colonies[0]
	next := len(colonies)
	for _, k := range economy.MineKinds {
		id := actions.Encode(actions.Target{Kind: actions.KindMine, Colony: next, Mine: k})
		for l := 0; l < template.Mine(k).Level(); l++ {
			c.cost = c.cost.Add(economy.MineUpgradeCost(k, l))
			c.actions = append(c.actions, id)
		}
		c.gain = c.gain.Add(template.Mine(k).TodaysProduction())
	}
	return c, true
}
