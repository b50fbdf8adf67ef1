package episode

import (
	"fmt"

	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/sim/digest"
	"ogamesim/internal/sim/economy"
	"ogamesim/internal/sim/obs"
)

// Snapshot captures the episode so Resume continues it bit-for-bit.
func (e *Env) Snapshot() snapshot.SnapshotV1 {
	st := e.player.State()
	ec := e.cfg.Economy
	d := digest.StateDigest(e.player)

	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			EpisodeID: e.episodeID,
			Step:      e.steps,
			Digest:    d,
		},
		MaxColonySlots:       ec.MaxColonySlots,
		ColonyMaxTemperature: ec.ColonyMaxTemperature,
		Exploration: snapshot.ExplorationV1{
			BucketSize: ec.Exploration.BucketSize,
			ScoreCap:   ec.Exploration.ScoreCap,
			MaxValue:   ec.Exploration.MaxValue,
		},
		MaxSteps: e.cfg.MaxSteps,
		Step:     e.steps,
		Return:   e.ret,
		Player: snapshot.PlayerV1{
			Resources:         st.Resources.Array(),
			Points:            st.Points,
			Day:               st.Day,
			AstrophysicsLevel: st.AstrophysicsLevel,
			PlasmaLevel:       st.PlasmaLevel,
			RedeemedBuckets:   st.RedeemedBuckets,
		},
	}
	for _, c := range st.Colonies {
		snap.Player.Colonies = append(snap.Player.Colonies, snapshot.ColonyV1{
			MaxTemperature: c.MaxTemperature,
			Levels:         c.Levels,
		})
	}
	return snap
}

// Resume replaces the current episode with the checkpointed one. The
// checkpoint's economy parameters win over the Env's own config, and the
// rebuilt state must hash to the recorded digest.
func (e *Env) Resume(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("%w: %d", snapshot.ErrVersion, s.Header.Version)
	}
	cfg := Config{
		Economy: economy.Config{
			MaxColonySlots:       s.MaxColonySlots,
			ColonyMaxTemperature: s.ColonyMaxTemperature,
			Exploration: economy.ExplorationConfig{
				BucketSize: s.Exploration.BucketSize,
				ScoreCap:   s.Exploration.ScoreCap,
				MaxValue:   s.Exploration.MaxValue,
			},
		},
		MaxSteps: s.MaxSteps,
	}
	st := economy.State{
		Resources: economy.Resources{
			Metal:     s.Player.Resources[0],
			Crystal:   s.Player.Resources[1],
			Deuterium: s.Player.Resources[2],
		},
		Points:            s.Player.Points,
		Day:               s.Player.Day,
		AstrophysicsLevel: s.Player.AstrophysicsLevel,
		PlasmaLevel:       s.Player.PlasmaLevel,
		RedeemedBuckets:   s.Player.RedeemedBuckets,
	}
	for _, c := range s.Player.Colonies {
		st.Colonies = append(st.Colonies, economy.ColonyState{MaxTemperature: c.MaxTemperature, Levels: c.Levels})
	}
	p, err := economy.Restore(cfg.Economy, st)
	if err != nil {
		return fmt.Errorf("resume %s: %w", s.Header.EpisodeID, err)
	}
	if s.Header.Digest != "" {
		if got := digest.StateDigest(p); got != s.Header.Digest {
			return fmt.Errorf("resume %s: digest mismatch at step %d: %s != %s", s.Header.EpisodeID, s.Step, got, s.Header.Digest)
		}
	}
	e.cfg = cfg
	e.episodeID = s.Header.EpisodeID
	e.player = p
	e.steps = s.Step
	e.ret = s.Return
	e.obs = obs.Encode(p, e.obs)
	return nil
}
