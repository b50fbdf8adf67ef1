package economy

import "math"

// Astrophysics unlocks colony slots: two levels per extra colony.
type Astrophysics struct {
	level       int
	upgradeCost Resources
}

func newAstrophysics() *Astrophysics {
	a := &Astrophysics{}
	a.upgradeCost = AstrophysicsUpgradeCost(0)
	return a
}

// AstrophysicsUpgradeCost: metal and deuterium share the same term.
func AstrophysicsUpgradeCost(level int) Resources {
	f := pow(1.75, level)
	common := math.Floor(float64(4000 * f))
	return Resources{
		Metal:     common,
		Crystal:   math.Floor(float64(8000 * f)),
		Deuterium: common,
	}
}

// RequiredColonies is min(ceil(level/2)+1, maxSlots). A maxSlots below 1
// counts as 1, matching Config.Normalize.
func RequiredColonies(level, maxSlots int) int {
	n := (level+1)/2 + 1
	if maxSlots < 1 {
		maxSlots = 1
	}
	if n > maxSlots {
		return maxSlots
	}
	return n
}

func (a *Astrophysics) Level() int             { return a.level }
func (a *Astrophysics) UpgradeCost() Resources { return a.upgradeCost }

func (a *Astrophysics) Upgrade() {
	a.level++
	a.upgradeCost = AstrophysicsUpgradeCost(a.level)
}

// PlasmaTechnology boosts total mine production. It keeps the modifier of
// the next level so a pending upgrade can be valued without mutating state.
type PlasmaTechnology struct {
	level            int
	upgradeCost      Resources
	modifier         Modifier
	upgradedModifier Modifier
}

func newPlasmaTechnology() *PlasmaTechnology {
	p := &PlasmaTechnology{}
	p.refresh()
	return p
}

func PlasmaModifier(level int) Modifier {
	l := float64(level)
	return Modifier{
		Metal:     float64(l*1.0) / 100,
		Crystal:   float64(l*0.66) / 100,
		Deuterium: float64(l*0.33) / 100,
	}
}

func PlasmaUpgradeCost(level int) Resources {
	f := pow(2, level)
	return Resources{
		Metal:     2000 * f,
		Crystal:   4000 * f,
		Deuterium: 1000 * f,
	}
}

func (p *PlasmaTechnology) refresh() {
	p.upgradeCost = PlasmaUpgradeCost(p.level)
	p.modifier = PlasmaModifier(p.level)
	p.upgradedModifier = PlasmaModifier(p.level + 1)
}

func (p *PlasmaTechnology) Level() int                 { return p.level }
func (p *PlasmaTechnology) UpgradeCost() Resources     { return p.upgradeCost }
func (p *PlasmaTechnology) Modifier() Modifier         { return p.modifier }
func (p *PlasmaTechnology) UpgradedModifier() Modifier { return p.upgradedModifier }

func (p *PlasmaTechnology) Upgrade() {
	p.level++
	p.refresh()
}
