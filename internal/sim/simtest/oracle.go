// Package simtest holds a closed-form model of the economy used to check the
// stateful core against an independent evaluation of every formula.
package simtest

import (
	"math"
	"math/big"
	"sync"

	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/economy"
)

// Oracle recomputes every cost and production figure from levels on each
// query. It shares no code with the economy package beyond its config type.
type Oracle struct {
	cfg economy.Config

	Resources [3]float64
	Points    float64
	Day       int
	Astro     int
	Plasma    int
	// Levels per active colony: metal, crystal, deuterium.
	Levels [][3]int

	redeemed map[int]bool
}

func NewOracle(cfg economy.Config) *Oracle {
	return &Oracle{
		cfg:      cfg,
		Levels:   [][3]int{{}},
		redeemed: map[int]bool{},
	}
}

type powKey struct {
	base float64
	n    int
}

var powCache sync.Map

// exactPow is base^n with every intermediate product kept exact, rounded once.
func exactPow(base float64, n int) float64 {
	key := powKey{base, n}
	if v, ok := powCache.Load(key); ok {
		return v.(float64)
	}
	prec := uint(64 * (n + 1))
	acc := new(big.Float).SetPrec(prec).SetInt64(1)
	b := new(big.Float).SetPrec(prec).SetFloat64(base)
	for i := 0; i < n; i++ {
		acc.Mul(acc, b)
	}
	f, _ := acc.Float64()
	powCache.Store(key, f)
	return f
}

func production(slot, level int, temp float64) [3]float64 {
	var out [3]float64
	l := float64(level)
	switch slot {
	case 0:
		if level == 0 {
			out[0] = 720
		} else {
			out[0] = math.RoundToEven(float64(float64(30*l)*exactPow(1.1, level))) * 24
		}
	case 1:
		if level == 0 {
			out[1] = 360
		} else {
			out[1] = math.Floor(float64(float64(20*l)*exactPow(1.1, level))) * 24
		}
	case 2:
		if level > 0 {
			factor := 0.68 - float64(0.002*(temp-20))
			out[2] = math.Floor(float64(float64(float64(20*l)*exactPow(1.1, level))*factor)) * 24
		}
	}
	return out
}

func mineCost(slot, level int) [3]float64 {
	switch slot {
	case 0:
		f := exactPow(1.5, level)
		return [3]float64{math.Floor(float64(60 * f)), math.Floor(float64(15 * f)), 0}
	case 1:
		f := exactPow(1.6, level)
		return [3]float64{math.Ceil(float64(48 * f)), math.Ceil(float64(24 * f)), 0}
	default:
		f := exactPow(1.5, level)
		return [3]float64{math.RoundToEven(float64(225 * f)), math.RoundToEven(float64(75 * f)), 0}
	}
}

func astroCost(level int) [3]float64 {
	f := exactPow(1.75, level)
	c := math.Floor(float64(4000 * f))
	return [3]float64{c, math.Floor(float64(8000 * f)), c}
}

func plasmaCost(level int) [3]float64 {
	f := exactPow(2, level)
	return [3]float64{2000 * f, 4000 * f, 1000 * f}
}

func plasmaModifier(level int) [3]float64 {
	l := float64(level)
	return [3]float64{float64(l*1.0) / 100, float64(l*0.66) / 100, float64(l*0.33) / 100}
}

func weighted(r [3]float64) float64 {
	return float64(r[0]*1) + float64(r[1]*2) + float64(r[2]*3)
}

func (o *Oracle) syncColonies() {
	n := (o.Astro+1)/2 + 1
	limit := o.cfg.MaxColonySlots
	if limit < 1 {
		limit = 1
	}
	if n > limit {
		n = limit
	}
	for len(o.Levels) < n {
		o.Levels = append(o.Levels, [3]int{})
	}
}

// Production is the plasma-boosted daily production.
func (o *Oracle) Production() [3]float64 {
	o.syncColonies()
	var sum [3]float64
	for _, lv := range o.Levels {
		for slot := 0; slot < 3; slot++ {
			p := production(slot, lv[slot], o.cfg.ColonyMaxTemperature)
			for k := range sum {
				sum[k] += p[k]
			}
		}
	}
	mod := plasmaModifier(o.Plasma)
	for k := range sum {
		sum[k] += math.Floor(float64(sum[k] * mod[k]))
	}
	return sum
}

func (o *Oracle) bonus() float64 {
	ex := o.cfg.Exploration
	if ex.BucketSize <= 0 || o.Points < 0 {
		return 0
	}
	n := int(ex.ScoreCap / ex.BucketSize)
	i := int(math.Floor(o.Points / ex.BucketSize))
	if i >= n || o.redeemed[i] {
		return 0
	}
	o.redeemed[i] = true
	return ex.MaxValue / float64(n) * float64(i)
}

func (o *Oracle) spend(cost [3]float64) bool {
	w := weighted(o.Resources)
	c := weighted(cost)
	if w < c {
		return false
	}
	o.Resources = [3]float64{w - c, 0, 0}
	o.Points += (cost[0] + cost[1] + cost[2]) / 1000.0
	return true
}

// Step applies an in-range action id and returns its reward and outcome code.
func (o *Oracle) Step(id int) (float64, string) {
	o.syncColonies()
	upgrade := func(cost [3]float64, apply func()) (float64, string) {
		before := o.Points
		if !o.spend(cost) {
			return -0.1, protocol.ErrNoResource
		}
		apply()
		return math.Log10(o.Points-before+1) + o.bonus(), ""
	}
	switch {
	case id == 0:
		o.Day++
		p := o.Production()
		for k := range o.Resources {
			o.Resources[k] += p[k]
		}
		return 0.1, ""
	case id == 1:
		return upgrade(astroCost(o.Astro), func() { o.Astro++ })
	case id == 2:
		return upgrade(plasmaCost(o.Plasma), func() { o.Plasma++ })
	}
	colony, slot := id/3-1, id%3
	if colony >= len(o.Levels) {
		return -0.1, protocol.ErrInvalidTarget
	}
	return upgrade(mineCost(slot, o.Levels[colony][slot]), func() { o.Levels[colony][slot]++ })
}
