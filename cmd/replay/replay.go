package main

import (
	"encoding/json"
	"fmt"

	persistlog "ogamesim/internal/persistence/log"
	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/episode"
)

// lastStep keeps the entry the env produced for the latest step.
type lastStep struct{ entry protocol.StepLogEntry }

func (l *lastStep) WriteStep(e protocol.StepLogEntry) error {
	l.entry = e
	return nil
}

type replayer struct {
	env  *episode.Env
	sink *lastStep

	verifyFrom int
	toStep     int

	episodeID string
	checked   int
	stopped   bool
}

func (r *replayer) replayFile(path string) error {
	return persistlog.ReadJSONL(path, func(line []byte) error {
		if r.stopped {
			return nil
		}
		base, err := protocol.DecodeBase(line)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if base.Type != protocol.TypeStep {
			return fmt.Errorf("unexpected record type %q", base.Type)
		}
		var want protocol.StepLogEntry
		if err := json.Unmarshal(line, &want); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		return r.apply(want)
	})
}

func (r *replayer) apply(want protocol.StepLogEntry) error {
	if want.Code != "" && !protocol.IsKnownCode(want.Code) {
		return fmt.Errorf("%s: unknown code %q at step %d", protocol.ErrBadRequest, want.Code, want.Step)
	}
	if r.episodeID == "" {
		r.episodeID = want.EpisodeID
	} else if want.EpisodeID != r.episodeID {
		return fmt.Errorf("episode id changed at step %d: %s -> %s", want.Step, r.episodeID, want.EpisodeID)
	}
	if want.Step <= r.env.Steps() {
		return nil
	}
	if r.toStep != 0 && want.Step > r.toStep {
		r.stopped = true
		return nil
	}
	if want.Step != r.env.Steps()+1 {
		return fmt.Errorf("step gap: want=%d got=%d", r.env.Steps()+1, want.Step)
	}

	if _, err := r.env.Step(want.Action); err != nil {
		return fmt.Errorf("step %d: %w", want.Step, err)
	}
	if want.Step < r.verifyFrom {
		return nil
	}
	r.checked++
	got := r.sink.entry
	switch {
	case got.Digest != want.Digest:
		return fmt.Errorf("%s at step %d: got=%s want=%s", protocol.ErrDigestMismatch, want.Step, got.Digest, want.Digest)
	case got.Reward != want.Reward || got.Code != want.Code:
		return fmt.Errorf("outcome mismatch at step %d: got=(%v,%q) want=(%v,%q)", want.Step, got.Reward, got.Code, want.Reward, want.Code)
	case got.Day != want.Day || got.Points != want.Points:
		return fmt.Errorf("state mismatch at step %d: got day=%d points=%v want day=%d points=%v", want.Step, got.Day, got.Points, want.Day, want.Points)
	}
	return nil
}
