// Package episode wraps a Player into reset/step episodes with step-count
// truncation, optional step logging and checkpoints.
package episode

import (
	"errors"

	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/actions"
	"ogamesim/internal/sim/digest"
	"ogamesim/internal/sim/economy"
	"ogamesim/internal/sim/obs"
	"ogamesim/internal/sim/tuning"
)

// ErrEpisodeDone is returned by Step once the episode has been truncated.
var ErrEpisodeDone = errors.New("episode done; call Reset")

type Config struct {
	Economy  economy.Config
	MaxSteps int
}

func ConfigFromTuning(t tuning.Tuning) Config {
	return Config{
		Economy:  t.EconomyConfig(),
		MaxSteps: t.Episode.MaxSteps,
	}
}

func DefaultConfig() Config {
	return ConfigFromTuning(tuning.Defaults())
}

type StepLogger interface {
	WriteStep(entry protocol.StepLogEntry) error
}

type Option func(*Env)

func WithStepLogger(l StepLogger) Option {
	return func(e *Env) { e.stepLogger = l }
}

func WithEpisodeID(id string) Option {
	return func(e *Env) { e.episodeID = id }
}

// Info is reported once, on the step that ends the episode.
type Info struct {
	Length           int                `json:"episodic_length"`
	Return           float64            `json:"episodic_return"`
	Points           float64            `json:"points"`
	Day              int                `json:"day"`
	Astrophysics     int                `json:"astrophysics"`
	PlasmaTechnology int                `json:"plasma_technology"`
	Colonies         int                `json:"colonies"`
	Metal            economy.LevelStats `json:"metal"`
	Crystal          economy.LevelStats `json:"crystal"`
	Deuterium        economy.LevelStats `json:"deuterium"`
	Digest           string             `json:"digest"`
}

type StepResult struct {
	Obs       []float64
	Reward    float64
	Terminal  bool
	Truncated bool
	Info      *Info

	Code   string
	Target actions.Target
}

// Env is one episode stream. Not safe for concurrent use.
type Env struct {
	cfg       Config
	episodeID string

	stepLogger StepLogger

	player *economy.Player
	steps  int
	ret    float64
	obs    []float64
}

func New(cfg Config, opts ...Option) *Env {
	e := &Env{cfg: cfg}
	for _, o := range opts {
		o(e)
	}
	e.Reset()
	return e
}

// Reset starts a fresh episode and returns its first observation.
func (e *Env) Reset() []float64 {
	e.player = economy.NewPlayer(e.cfg.Economy)
	e.steps = 0
	e.ret = 0
	e.obs = obs.Encode(e.player, e.obs)
	return e.obs
}

// Step applies one action. The observation slice is reused across steps.
// Out-of-range ids return actions.ErrActionOutOfRange without counting a step;
// stepping a finished episode returns ErrEpisodeDone and changes nothing.
func (e *Env) Step(id int) (StepResult, error) {
	if e.Done() {
		return StepResult{}, ErrEpisodeDone
	}
	res, err := actions.Apply(e.player, id)
	if err != nil {
		return StepResult{}, err
	}
	e.steps++
	e.ret += res.Reward
	e.obs = obs.Encode(e.player, e.obs)

	out := StepResult{
		Obs:       e.obs,
		Reward:    res.Reward,
		Terminal:  res.Terminal,
		Truncated: e.cfg.MaxSteps > 0 && e.steps >= e.cfg.MaxSteps,
		Code:      res.Code,
		Target:    res.Target,
	}

	var d string
	if e.stepLogger != nil || out.Terminal || out.Truncated {
		d = digest.StateDigest(e.player)
	}
	if e.stepLogger != nil {
		_ = e.stepLogger.WriteStep(protocol.StepLogEntry{
			Type:            protocol.TypeStep,
			ProtocolVersion: protocol.Version,
			EpisodeID:       e.episodeID,
			Step:            e.steps,
			Day:             e.player.Day(),
			Action:          id,
			Target:          res.Target.String(),
			Reward:          res.Reward,
			Code:            res.Code,
			Points:          e.player.Points(),
			Digest:          d,
		})
	}
	if out.Terminal || out.Truncated {
		info := e.info(d)
		out.Info = &info
	}
	return out, nil
}

func (e *Env) Player() *economy.Player { return e.player }
func (e *Env) Config() Config          { return e.cfg }
func (e *Env) EpisodeID() string       { return e.episodeID }
func (e *Env) Steps() int              { return e.steps }
func (e *Env) Return() float64         { return e.ret }
func (e *Env) Done() bool              { return e.cfg.MaxSteps > 0 && e.steps >= e.cfg.MaxSteps }

// Observation returns the current observation without stepping.
func (e *Env) Observation() []float64 { return e.obs }

// Info reports the end-of-episode statistics for the current state.
func (e *Env) Info() Info {
	return e.info(digest.StateDigest(e.player))
}

func (e *Env) info(d string) Info {
	p := e.player
	return Info{
		Length:           e.steps,
		Return:           e.ret,
		Points:           p.Points(),
		Day:              p.Day(),
		Astrophysics:     p.Astrophysics().Level(),
		PlasmaTechnology: p.Plasma().Level(),
		Colonies:         len(p.Colonies()),
		Metal:            p.MineLevelStats(economy.MetalMine),
		Crystal:          p.MineLevelStats(economy.CrystalMine),
		Deuterium:        p.MineLevelStats(economy.DeuteriumSynthesizer),
		Digest:           d,
	}
}

// Summary converts the info into the persisted episode record.
func (i Info) Summary(episodeID, policy string, seed int64) protocol.EpisodeSummary {
	conv := func(s economy.LevelStats) protocol.LevelStats {
		return protocol.LevelStats{Max: s.Max, Mean: s.Mean, Min: s.Min}
	}
	return protocol.EpisodeSummary{
		Type:             protocol.TypeEpisode,
		ProtocolVersion:  protocol.Version,
		EpisodeID:        episodeID,
		Policy:           policy,
		Seed:             seed,
		Length:           i.Length,
		Return:           i.Return,
		Points:           i.Points,
		Day:              i.Day,
		Astrophysics:     i.Astrophysics,
		PlasmaTechnology: i.PlasmaTechnology,
		Colonies:         i.Colonies,
		Metal:            conv(i.Metal),
		Crystal:          conv(i.Crystal),
		Deuterium:        conv(i.Deuterium),
		Digest:           i.Digest,
	}
}
