package economy

import (
	"errors"
	"fmt"
)

// Player is the whole economy of one simulated account. It is not safe for
// concurrent use; independent players may run on separate goroutines.
type Player struct {
	cfg Config

	resources Resources
	points    float64
	day       int

	astrophysics *Astrophysics
	plasma       *PlasmaTechnology
	colonies     []*Colony
	ledger       *ExplorationLedger
}

// NewPlayer returns a day-0 player with one colony and nothing built.
func NewPlayer(cfg Config) *Player {
	cfg = cfg.Normalize()
	p := &Player{
		cfg:          cfg,
		astrophysics: newAstrophysics(),
		plasma:       newPlasmaTechnology(),
		ledger:       NewExplorationLedger(cfg.Exploration),
	}
	p.colonies = append(p.colonies, NewColony(cfg.ColonyMaxTemperature))
	return p
}

func (p *Player) Config() Config              { return p.cfg }
func (p *Player) Resources() Resources        { return p.resources }
func (p *Player) Points() float64             { return p.points }
func (p *Player) Day() int                    { return p.day }
func (p *Player) Astrophysics() *Astrophysics { return p.astrophysics }
func (p *Player) Plasma() *PlasmaTechnology   { return p.plasma }
func (p *Player) Ledger() *ExplorationLedger  { return p.ledger }
func (p *Player) MaxColonySlots() int         { return p.cfg.MaxColonySlots }

// Colonies returns the active colonies in unlock order. Callers must not modify the slice.
func (p *Player) Colonies() []*Colony { return p.colonies }

// RequiredColonies is the colony count unlocked by the current Astrophysics level.
func (p *Player) RequiredColonies() int {
	return RequiredColonies(p.astrophysics.level, p.cfg.MaxColonySlots)
}

// EnsureColonies appends fresh colonies until the unlocked count is reached.
// Colonies are never removed.
func (p *Player) EnsureColonies() {
	for n := p.RequiredColonies(); len(p.colonies) < n; {
		p.colonies = append(p.colonies, NewColony(p.cfg.ColonyMaxTemperature))
	}
}

func (p *Player) AddResources(r Resources) {
	p.resources = p.resources.Add(r)
}

// MineProduction is the daily mine output across all colonies, without plasma.
func (p *Player) MineProduction() Resources {
	p.EnsureColonies()
	var mineSum Resources
	for _, c := range p.colonies {
		for _, m := range c.mines {
			mineSum = mineSum.Add(m.todaysProduction)
		}
	}
	return mineSum
}

// TotalProduction is MineProduction plus the plasma bonus.
func (p *Player) TotalProduction() Resources {
	mineSum := p.MineProduction()
	bonus := mineSum.Scale(p.plasma.modifier)
	return mineSum.Add(bonus)
}

func (p *Player) AdvanceDay() {
	p.day++
	p.AddResources(p.TotalProduction())
}

// TrySpend pays cost out of the weighted stockpile. The remainder collapses
// into metal and the score grows by the raw cost sum / 1000. On failure
// nothing changes.
func (p *Player) TrySpend(cost Resources) bool {
	if !p.resources.CanAfford(cost) {
		return false
	}
	remaining := p.resources.WeightedValue() - cost.WeightedValue()
	p.resources = Resources{Metal: remaining}
	p.points += cost.Sum() / 1000.0
	return true
}

// ExplorationBonus redeems the bucket for the current score.
func (p *Player) ExplorationBonus() float64 {
	return p.ledger.Redeem(p.points)
}

// LevelStats summarises one mine kind across the active colonies.
type LevelStats struct {
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
}

func (p *Player) MineLevelStats(kind MineKind) LevelStats {
	if len(p.colonies) == 0 {
		return LevelStats{}
	}
	first := float64(p.colonies[0].mines[kind].level)
	st := LevelStats{Max: first, Min: first}
	var sum float64
	for _, c := range p.colonies {
		l := float64(c.mines[kind].level)
		sum += l
		if l > st.Max {
			st.Max = l
		}
		if l < st.Min {
			st.Min = l
		}
	}
	st.Mean = sum / float64(len(p.colonies))
	return st
}

// Clone returns an independent copy. Colonies, mines, technologies and the
// exploration ledger are all duplicated.
func (p *Player) Clone() *Player {
	c := &Player{
		cfg:          p.cfg,
		resources:    p.resources,
		points:       p.points,
		day:          p.day,
		astrophysics: new(Astrophysics),
		plasma:       new(PlasmaTechnology),
		colonies:     make([]*Colony, len(p.colonies)),
		ledger:       p.ledger.clone(),
	}
	*c.astrophysics = *p.astrophysics
	*c.plasma = *p.plasma
	for i, col := range p.colonies {
		nc := &Colony{maxTemperature: col.maxTemperature}
		for k, m := range col.mines {
			mm := *m
			nc.mines[k] = &mm
		}
		c.colonies[i] = nc
	}
	return c
}

// ColonyState is the checkpoint form of a colony.
type ColonyState struct {
	MaxTemperature float64 `json:"max_temperature"`
	// Levels is indexed by MineKind.
	Levels [3]int `json:"levels"`
}

// State is everything needed to rebuild a Player exactly. Cached costs and
// productions are derived, so only levels are stored.
type State struct {
	Resources         Resources     `json:"resources"`
	Points            float64       `json:"points"`
	Day               int           `json:"day"`
	AstrophysicsLevel int           `json:"astrophysics_level"`
	PlasmaLevel       int           `json:"plasma_level"`
	Colonies          []ColonyState `json:"colonies"`
	RedeemedBuckets   []int         `json:"redeemed_buckets,omitempty"`
}

func (p *Player) State() State {
	s := State{
		Resources:         p.resources,
		Points:            p.points,
		Day:               p.day,
		AstrophysicsLevel: p.astrophysics.level,
		PlasmaLevel:       p.plasma.level,
		Colonies:          make([]ColonyState, 0, len(p.colonies)),
		RedeemedBuckets:   p.ledger.RedeemedBuckets(),
	}
	for _, c := range p.colonies {
		cs := ColonyState{MaxTemperature: c.maxTemperature}
		for _, k := range MineKinds {
			cs.Levels[k] = c.mines[k].level
		}
		s.Colonies = append(s.Colonies, cs)
	}
	return s
}

var ErrInvalidState = errors.New("invalid player state")

// Restore rebuilds a player from a checkpoint. Levels are replayed through
// Upgrade so every cached field equals its closed form.
func Restore(cfg Config, s State) (*Player, error) {
	if s.Day < 0 || s.AstrophysicsLevel < 0 || s.PlasmaLevel < 0 || s.Points < 0 {
		return nil, fmt.Errorf("%w: negative counter", ErrInvalidState)
	}
	if len(s.Colonies) == 0 {
		return nil, fmt.Errorf("%w: no colonies", ErrInvalidState)
	}
	cfg = cfg.Normalize()
	if len(s.Colonies) > cfg.MaxColonySlots {
		return nil, fmt.Errorf("%w: %d colonies exceed %d slots", ErrInvalidState, len(s.Colonies), cfg.MaxColonySlots)
	}
	p := &Player{
		cfg:          cfg,
		resources:    s.Resources,
		points:       s.Points,
		day:          s.Day,
		astrophysics: newAstrophysics(),
		plasma:       newPlasmaTechnology(),
		ledger:       NewExplorationLedger(cfg.Exploration),
	}
	for i := 0; i < s.AstrophysicsLevel; i++ {
		p.astrophysics.Upgrade()
	}
	for i := 0; i < s.PlasmaLevel; i++ {
		p.plasma.Upgrade()
	}
	for ci, cs := range s.Colonies {
		c := NewColony(cs.MaxTemperature)
		for _, k := range MineKinds {
			if cs.Levels[k] < 0 {
				return nil, fmt.Errorf("%w: colony %d %s level %d", ErrInvalidState, ci, k, cs.Levels[k])
			}
			for i := 0; i < cs.Levels[k]; i++ {
				c.mines[k].Upgrade()
			}
		}
		p.colonies = append(p.colonies, c)
	}
	for _, b := range s.RedeemedBuckets {
		if b < 0 || b >= cfg.Exploration.BucketCount() {
			return nil, fmt.Errorf("%w: bucket %d out of range", ErrInvalidState, b)
		}
		p.ledger.markRedeemed(b)
	}
	return p, nil
}
