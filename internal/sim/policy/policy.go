// Package policy holds non-learning action sources used as baselines and
// for exercising the simulator.
package policy

import (
	"fmt"
	"math/rand"
	"strings"

	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/economy"
)

type Policy interface {
	Name() string
	Act(p *economy.Player) int
}

// Names lists the policies ByName understands.
var Names = []string{"wait", "random", "greedy", "planner"}

func ByName(name string, seed int64) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wait":
		return Wait{}, nil
	case "random":
		return NewRandom(seed), nil
	case "greedy", "greedy_roi":
		return NewGreedyROI(), nil
	case "planner":
		return NewPlanner(DefaultPlannerHorizon, true), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

// Wait only ever advances the day.
type Wait struct{}

func (Wait) Name() string            { return "wait" }
func (Wait) Act(*economy.Player) int { return actions.ActionWait }

// Random picks uniformly from the whole action space, locked colonies included.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Act(p *economy.Player) int {
	return r.rng.Intn(actions.Count(p.MaxColonySlots()))
}
