package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ogamesim/internal/sim/economy"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Economy     Economy     `yaml:"economy"`
	Exploration Exploration `yaml:"exploration"`
	Episode     Episode     `yaml:"episode"`
}

type Economy struct {
	MaxColonySlots       int     `yaml:"max_colony_slots"`
	ColonyMaxTemperature float64 `yaml:"colony_max_temperature"`
}

type Exploration struct {
	BucketSize float64 `yaml:"bucket_size"`
	ScoreCap   float64 `yaml:"score_cap"`
	MaxValue   float64 `yaml:"max_value"`
}

type Episode struct {
	MaxSteps            int `yaml:"max_steps"`
	SnapshotEverySteps  int `yaml:"snapshot_every_steps"`
	StepLogSegmentSteps int `yaml:"step_log_segment_steps"` // steps per step log file
}

// Load reads a tuning file over the defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	ex := economy.DefaultExplorationConfig()
	return Tuning{
		ProtocolVersion: "1.0",
		Economy: Economy{
			MaxColonySlots:       economy.DefaultMaxColonySlots,
			ColonyMaxTemperature: economy.DefaultColonyMaxTemperature,
		},
		Exploration: Exploration{
			BucketSize: ex.BucketSize,
			ScoreCap:   ex.ScoreCap,
			MaxValue:   ex.MaxValue,
		},
		Episode: Episode{
			MaxSteps:            8000,
			SnapshotEverySteps:  1000,
			StepLogSegmentSteps: 1000,
		},
	}
}

// Normalize fills zero values left by a partial file.
func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	d := Defaults()
	if strings.TrimSpace(t.ProtocolVersion) == "" {
		t.ProtocolVersion = d.ProtocolVersion
	}
	if t.Economy.MaxColonySlots == 0 {
		t.Economy.MaxColonySlots = d.Economy.MaxColonySlots
	}
	if t.Exploration.BucketSize == 0 {
		t.Exploration.BucketSize = d.Exploration.BucketSize
	}
	if t.Exploration.ScoreCap == 0 {
		t.Exploration.ScoreCap = d.Exploration.ScoreCap
	}
	if t.Episode.MaxSteps == 0 {
		t.Episode.MaxSteps = d.Episode.MaxSteps
	}
	if t.Episode.StepLogSegmentSteps == 0 {
		t.Episode.StepLogSegmentSteps = d.Episode.StepLogSegmentSteps
	}
}

func (t Tuning) Validate() error {
	if t.Economy.MaxColonySlots < 1 {
		return fmt.Errorf("economy.max_colony_slots must be >= 1")
	}
	if t.Exploration.BucketSize <= 0 {
		return fmt.Errorf("exploration.bucket_size must be > 0")
	}
	if t.Exploration.ScoreCap < t.Exploration.BucketSize {
		return fmt.Errorf("exploration.score_cap must be >= bucket_size")
	}
	if t.Exploration.MaxValue < 0 {
		return fmt.Errorf("exploration.max_value must be >= 0")
	}
	if t.Episode.MaxSteps < 1 {
		return fmt.Errorf("episode.max_steps must be >= 1")
	}
	if t.Episode.SnapshotEverySteps < 0 {
		return fmt.Errorf("episode.snapshot_every_steps must be >= 0")
	}
	if t.Episode.StepLogSegmentSteps < 1 {
		return fmt.Errorf("episode.step_log_segment_steps must be >= 1")
	}
	return nil
}

// EconomyConfig converts the economy and exploration sections for economy.NewPlayer.
func (t Tuning) EconomyConfig() economy.Config {
	return economy.Config{
		MaxColonySlots:       t.Economy.MaxColonySlots,
		ColonyMaxTemperature: t.Economy.ColonyMaxTemperature,
		Exploration: economy.ExplorationConfig{
			BucketSize: t.Exploration.BucketSize,
			ScoreCap:   t.Exploration.ScoreCap,
			MaxValue:   t.Exploration.MaxValue,
		},
	}
}
