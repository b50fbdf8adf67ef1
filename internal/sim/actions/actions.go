// Package actions decodes integer action ids and applies them to a player.
package actions

import (
	"errors"
	"fmt"
	"math"

	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/economy"
)

// Fixed rewards for waiting and for any failed or invalid upgrade.
const (
	WaitReward = 0.1
	Penalty    = -0.1
)

// Fixed action ids; ids from FirstMineAction on address colony mines.
const (
	ActionWait             = 0
	ActionAstrophysics     = 1
	ActionPlasmaTechnology = 2
	FirstMineAction        = 3
)

var ErrActionOutOfRange = errors.New("action out of range")

// Count is the size of the action space for maxSlots colonies.
func Count(maxSlots int) int { return 3*maxSlots + 3 }

type Kind uint8

const (
	KindWait Kind = iota
	KindAstrophysics
	KindPlasmaTechnology
	KindMine
)

// Target is a decoded action id.
type Target struct {
	Kind   Kind
	Colony int
	Mine   economy.MineKind
}

func (t Target) String() string {
	switch t.Kind {
	case KindWait:
		return "WAIT"
	case KindAstrophysics:
		return "ASTROPHYSICS"
	case KindPlasmaTechnology:
		return "PLASMA_TECHNOLOGY"
	case KindMine:
		return fmt.Sprintf("colony[%d].%s", t.Colony, t.Mine)
	default:
		return "UNKNOWN"
	}
}

// Decode maps an id in [0, Count(maxSlots)) to its target. It does not look
// at any player, so a decoded colony may not be unlocked yet.
func Decode(id, maxSlots int) (Target, error) {
	if id < 0 || id >= Count(maxSlots) {
		return Target{}, fmt.Errorf("%w: %d not in [0,%d)", ErrActionOutOfRange, id, Count(maxSlots))
	}
	switch id {
	case ActionWait:
		return Target{Kind: KindWait}, nil
	case ActionAstrophysics:
		return Target{Kind: KindAstrophysics}, nil
	case ActionPlasmaTechnology:
		return Target{Kind: KindPlasmaTechnology}, nil
	}
	return Target{
		Kind:   KindMine,
		Colony: id/3 - 1,
		Mine:   economy.MineKind(id % 3),
	}, nil
}

// Encode is the inverse of Decode.
func Encode(t Target) int {
	switch t.Kind {
	case KindAstrophysics:
		return ActionAstrophysics
	case KindPlasmaTechnology:
		return ActionPlasmaTechnology
	case KindMine:
		return FirstMineAction + 3*t.Colony + int(t.Mine)
	default:
		return ActionWait
	}
}

// Result is the outcome of one applied action. Code is empty on success.
type Result struct {
	Reward   float64
	Terminal bool
	Code     string
	Target   Target
}

// Apply performs one action. Only ids outside the action space are errors;
// unaffordable upgrades and locked colonies are penalised outcomes.
// Terminal is always false.
func Apply(p *economy.Player, id int) (Result, error) {
	t, err := Decode(id, p.MaxColonySlots())
	if err != nil {
		return Result{}, err
	}
	p.EnsureColonies()

	res := Result{Target: t}
	switch t.Kind {
	case KindWait:
		p.AdvanceDay()
		res.Reward = WaitReward
	case KindAstrophysics:
		res.Reward, res.Code = attemptUpgrade(p, p.Astrophysics())
	case KindPlasmaTechnology:
		res.Reward, res.Code = attemptUpgrade(p, p.Plasma())
	case KindMine:
		colonies := p.Colonies()
		if t.Colony >= len(colonies) {
			res.Reward = Penalty
			res.Code = protocol.ErrInvalidTarget
			return res, nil
		}
		res.Reward, res.Code = attemptUpgrade(p, colonies[t.Colony].Mine(t.Mine))
	}
	return res, nil
}

func attemptUpgrade(p *economy.Player, u economy.Upgradable) (float64, string) {
	before := p.Points()
	if !p.TrySpend(u.UpgradeCost()) {
		return Penalty, protocol.ErrNoResource
	}
	u.Upgrade()
	gained := p.Points() - before
	return math.Log10(gained+1) + p.ExplorationBonus(), ""
}

// Resolve returns the upgradable t points at on p, or nil for waits and locked colonies.
func Resolve(p *economy.Player, t Target) economy.Upgradable {
	switch t.Kind {
	case KindAstrophysics:
		return p.Astrophysics()
	case KindPlasmaTechnology:
		return p.Plasma()
	case KindMine:
		if t.Colony < len(p.Colonies()) {
			return p.Colonies()[t.Colony].Mine(t.Mine)
		}
	}
	return nil
}
