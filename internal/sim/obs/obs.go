// Package obs encodes a player into the fixed-length observation vector.
package obs

import "ogamesim/internal/sim/economy"

// HeaderLen is the number of player-wide fields before the colony block.
const HeaderLen = 5

// PerColony is the number of fields per colony slot: cost and marginal
// increase for each mine kind.
const PerColony = 6

// Len is the observation width for maxSlots colony slots (125 for 20).
func Len(maxSlots int) int { return HeaderLen + PerColony*maxSlots }

// Encode writes the observation of p into dst and returns it. dst is
// reallocated when it is too short; unfilled colony slots are zero.
//
//	0 weighted resources
//	1 weighted total production
//	2 weighted astrophysics cost
//	3 weighted plasma cost
//	4 weighted production gain of the next plasma level
//	5.. per colony: (cost, increase) for metal, crystal, deuterium
func Encode(p *economy.Player, dst []float64) []float64 {
	n := Len(p.MaxColonySlots())
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}

	prod := p.TotalProduction()
	plasma := p.Plasma()
	dst[0] = p.Resources().WeightedValue()
	dst[1] = prod.WeightedValue()
	dst[2] = p.Astrophysics().UpgradeCost().WeightedValue()
	dst[3] = plasma.UpgradeCost().WeightedValue()
	dst[4] = prod.Scale(plasma.UpgradedModifier().Sub(plasma.Modifier())).WeightedValue()

	i := HeaderLen
	for _, c := range p.Colonies() {
		if i+PerColony > n {
			break
		}
		for _, k := range economy.MineKinds {
			m := c.Mine(k)
			dst[i] = m.UpgradeCost().WeightedValue()
			dst[i+1] = m.UpgradeIncreasePerDay().WeightedValue()
			i += 2
		}
	}
	return dst
}
