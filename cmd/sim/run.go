package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"ogamesim/internal/persistence/archive"
	"ogamesim/internal/persistence/indexdb"
	persistlog "ogamesim/internal/persistence/log"
	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/episode"
	"ogamesim/internal/sim/policy"
	"ogamesim/internal/sim/tuning"
)

type runner struct {
	runDir    string
	tune      tuning.Tuning
	index     *indexdb.SQLiteIndex
	summaries *persistlog.SummaryLogger
	stepLogs  bool
	logger    *log.Logger

	newEpisodeID func() string

	// Serialises best-episode comparisons across workers.
	archiveMu sync.Mutex
}

type episodeResult struct {
	EpisodeID string
	Summary   protocol.EpisodeSummary
	Final     string
	Err       error
}

var errInterrupted = errors.New("interrupted")

// episodeDir holds the per-episode step logs.
func episodeDir(runDir, episodeID string) string {
	return filepath.Join(runDir, "episodes", episodeID)
}

func (r *runner) run(ctx context.Context, policyName string, seed int64) episodeResult {
	id := r.newEpisodeID()
	pol, err := policy.ByName(policyName, seed)
	if err != nil {
		return episodeResult{EpisodeID: id, Err: err}
	}
	return r.drive(ctx, id, pol, seed, nil)
}

// resume continues a checkpointed episode under its recorded id. Random
// policies restart from their seed; their generator state is not checkpointed.
func (r *runner) resume(ctx context.Context, snap snapshot.SnapshotV1) (episodeResult, error) {
	name := snap.Policy
	if name == "" {
		name = "wait"
	}
	pol, err := policy.ByName(name, snap.Seed)
	if err != nil {
		return episodeResult{EpisodeID: snap.Header.EpisodeID, Err: err}, err
	}
	res := r.drive(ctx, snap.Header.EpisodeID, pol, snap.Seed, &snap)
	return res, res.Err
}

func (r *runner) drive(ctx context.Context, id string, pol policy.Policy, seed int64, from *snapshot.SnapshotV1) episodeResult {
	res := episodeResult{EpisodeID: id}

	var sink stepSink
	if r.stepLogs {
		sl := persistlog.NewStepLogger(episodeDir(r.runDir, id), r.tune.Episode.StepLogSegmentSteps)
		defer sl.Close()
		sink.a = sl
	}
	if r.index != nil {
		sink.b = r.index
	}

	opts := []episode.Option{episode.WithEpisodeID(id)}
	if sink.a != nil || sink.b != nil {
		opts = append(opts, episode.WithStepLogger(sink))
	}
	env := episode.New(episode.ConfigFromTuning(r.tune), opts...)
	if from != nil {
		if err := env.Resume(*from); err != nil {
			res.Err = err
			return res
		}
	}

	every := r.tune.Episode.SnapshotEverySteps
	var info *episode.Info
	if env.Done() {
		final := env.Info()
		info = &final
	}
	for info == nil {
		select {
		case <-ctx.Done():
			// Leave a checkpoint so the episode can be resumed.
			if path, _, err := r.checkpoint(env, pol.Name(), seed); err != nil {
				res.Err = fmt.Errorf("%w; checkpoint: %v", errInterrupted, err)
			} else {
				res.Err = fmt.Errorf("%w at step %d; resume with -resume %s", errInterrupted, env.Steps(), path)
			}
			return res
		default:
		}

		step, err := env.Step(pol.Act(env.Player()))
		if err != nil {
			res.Err = err
			return res
		}
		info = step.Info
		if info == nil && every > 0 && env.Steps()%every == 0 {
			if _, _, err := r.checkpoint(env, pol.Name(), seed); err != nil {
				r.logger.Printf("episode %s: snapshot at step %d: %v", id, env.Steps(), err)
			}
		}
	}

	final, snap, err := r.checkpoint(env, pol.Name(), seed)
	if err != nil {
		res.Err = fmt.Errorf("final snapshot: %w", err)
		return res
	}
	res.Final = final

	sum := info.Summary(id, pol.Name(), seed)
	res.Summary = sum
	if err := r.summaries.WriteSummary(sum); err != nil {
		r.logger.Printf("episode %s: summary log: %v", id, err)
	}
	r.index.RecordEpisode(sum)

	r.archiveMu.Lock()
	archived, ok, err := archive.ArchiveIfBest(r.runDir, final, snap)
	r.archiveMu.Unlock()
	switch {
	case err != nil:
		r.logger.Printf("episode %s: archive: %v", id, err)
	case ok:
		r.index.RecordArchive(id, archived, sum.Points)
	}
	return res
}

func (r *runner) checkpoint(env *episode.Env, policyName string, seed int64) (string, snapshot.SnapshotV1, error) {
	snap := env.Snapshot()
	snap.Policy = policyName
	snap.Seed = seed
	path := snapshot.PathFor(r.runDir, snap.Header.EpisodeID, snap.Header.Step)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", snap, err
	}
	r.index.RecordSnapshot(path, snap)
	return path, snap, nil
}

type stepSink struct {
	a episode.StepLogger
	b episode.StepLogger
}

func (m stepSink) WriteStep(entry protocol.StepLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteStep(entry)
	}
	if m.b != nil {
		_ = m.b.WriteStep(entry)
	}
	return nil
}
