package economy

import "math"

// Upgradable is implemented by every building and technology the dispatcher can level up.
type Upgradable interface {
	Level() int
	UpgradeCost() Resources
	Upgrade()
}

// MineKind is the closed set of production buildings on a colony.
type MineKind uint8

const (
	MetalMine MineKind = iota
	CrystalMine
	DeuteriumSynthesizer
)

// MineKinds lists kinds in colony slot order (metal, crystal, deuterium).
var MineKinds = [...]MineKind{MetalMine, CrystalMine, DeuteriumSynthesizer}

func (k MineKind) String() string {
	switch k {
	case MetalMine:
		return "METAL_MINE"
	case CrystalMine:
		return "CRYSTAL_MINE"
	case DeuteriumSynthesizer:
		return "DEUTERIUM_SYNTHESIZER"
	default:
		return "UNKNOWN"
	}
}

const hoursPerDay = 24

type mineFormula struct {
	// base is the level-0 production per day.
	base Resources
	// perDay is the production per day at level >= 1.
	perDay func(level int, maxTemperature float64) Resources
	cost   func(level int) Resources
}

var mineFormulas = [...]mineFormula{
	MetalMine: {
		base: Resources{Metal: 30 * hoursPerDay},
		perDay: func(level int, _ float64) Resources {
			n := float64(level)
			perHour := float64(float64(30*n) * pow(1.1, level))
			return Resources{Metal: roundHalfEven(perHour) * hoursPerDay}
		},
		cost: func(level int) Resources {
			f := pow(1.5, level)
			return Resources{
				Metal:   math.Floor(float64(60 * f)),
				Crystal: math.Floor(float64(15 * f)),
			}
		},
	},
	CrystalMine: {
		base: Resources{Crystal: 15 * hoursPerDay},
		perDay: func(level int, _ float64) Resources {
			n := float64(level)
			perHour := float64(float64(20*n) * pow(1.1, level))
			return Resources{Crystal: math.Floor(perHour) * hoursPerDay}
		},
		cost: func(level int) Resources {
			f := pow(1.6, level)
			return Resources{
				Metal:   math.Ceil(float64(48 * f)),
				Crystal: math.Ceil(float64(24 * f)),
			}
		},
	},
	DeuteriumSynthesizer: {
		base: Resources{},
		perDay: func(level int, maxTemperature float64) Resources {
			n := float64(level)
			// No clamp: very hot colonies produce negative deuterium.
			factor := 0.68 - float64(0.002*(maxTemperature-20))
			perHour := float64(float64(float64(20*n)*pow(1.1, level)) * factor)
			return Resources{Deuterium: math.Floor(perHour) * hoursPerDay}
		},
		cost: func(level int) Resources {
			f := pow(1.5, level)
			return Resources{
				Metal:   roundHalfEven(float64(225 * f)),
				Crystal: roundHalfEven(float64(75 * f)),
			}
		},
	},
}

// MineProduction is the closed-form daily production of a mine at level.
func MineProduction(kind MineKind, level int, maxTemperature float64) Resources {
	f := mineFormulas[kind]
	if level <= 0 {
		return f.base
	}
	return f.perDay(level, maxTemperature)
}

// MineUpgradeCost is the closed-form cost of going from level to level+1.
func MineUpgradeCost(kind MineKind, level int) Resources {
	return mineFormulas[kind].cost(level)
}

// Mine is one production building. Cached fields always equal the closed form
// at the current level.
type Mine struct {
	kind           MineKind
	level          int
	maxTemperature float64

	todaysProduction      Resources
	upgradeCost           Resources
	upgradeIncreasePerDay Resources
}

func newMine(kind MineKind, maxTemperature float64) *Mine {
	m := &Mine{kind: kind, maxTemperature: maxTemperature}
	m.refresh()
	return m
}

func (m *Mine) refresh() {
	m.todaysProduction = MineProduction(m.kind, m.level, m.maxTemperature)
	m.upgradeCost = MineUpgradeCost(m.kind, m.level)
	m.upgradeIncreasePerDay = MineProduction(m.kind, m.level+1, m.maxTemperature).Sub(m.todaysProduction)
}

func (m *Mine) Kind() MineKind                   { return m.kind }
func (m *Mine) Level() int                       { return m.level }
func (m *Mine) MaxTemperature() float64          { return m.maxTemperature }
func (m *Mine) TodaysProduction() Resources      { return m.todaysProduction }
func (m *Mine) UpgradeCost() Resources           { return m.upgradeCost }
func (m *Mine) UpgradeIncreasePerDay() Resources { return m.upgradeIncreasePerDay }

func (m *Mine) Upgrade() {
	m.level++
	m.refresh()
}
