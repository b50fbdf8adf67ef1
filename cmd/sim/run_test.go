package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"ogamesim/internal/persistence/archive"
	"ogamesim/internal/persistence/indexdb"
	persistlog "ogamesim/internal/persistence/log"
	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/sim/tuning"
)

func testRunner(t *testing.T, runDir string, withIndex bool) *runner {
	t.Helper()
	tune := tuning.Defaults()
	tune.Episode.MaxSteps = 300
	tune.Episode.SnapshotEverySteps = 100

	r := &runner{
		runDir:       runDir,
		tune:         tune,
		summaries:    persistlog.NewSummaryLogger(runDir),
		stepLogs:     true,
		logger:       log.New(io.Discard, "", 0),
		newEpisodeID: func() string { return "ep_test" },
	}
	t.Cleanup(func() { _ = r.summaries.Close() })
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(runDir, "index", "run.sqlite"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		r.index = idx
	}
	return r
}

func TestRun_WritesArtefacts(t *testing.T) {
	runDir := t.TempDir()
	r := testRunner(t, runDir, true)

	res := r.run(context.Background(), "greedy", 3)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}
	if res.Summary.Length != 300 || res.Summary.Policy != "greedy" || res.Summary.Seed != 3 {
		t.Fatalf("summary=%+v", res.Summary)
	}
	for _, step := range []int{100, 200, 300} {
		if _, err := os.Stat(snapshot.PathFor(runDir, "ep_test", step)); err != nil {
			t.Fatalf("snapshot at %d: %v", step, err)
		}
	}
	meta, ok, err := archive.ReadMeta(runDir, "greedy")
	if err != nil || !ok {
		t.Fatalf("archive meta: ok=%v err=%v", ok, err)
	}
	if meta.EpisodeID != "ep_test" || meta.Digest != res.Summary.Digest {
		t.Fatalf("archive meta=%+v", meta)
	}

	files, err := persistlog.ListFiles(filepath.Join(episodeDir(runDir, "ep_test"), "steps"), persistlog.StepPrefix)
	if err != nil || len(files) == 0 {
		t.Fatalf("step logs: %v %v", files, err)
	}

	if err := r.index.Close(); err != nil {
		t.Fatalf("close index: %v", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(runDir, "index", "run.sqlite"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	top, err := indexdb.TopEpisodes(db, "", 5)
	if err != nil || len(top) != 1 {
		t.Fatalf("TopEpisodes: %v %v", top, err)
	}
	var steps int
	if err := db.QueryRow(`SELECT COUNT(*) FROM steps WHERE episode_id='ep_test'`).Scan(&steps); err != nil {
		t.Fatalf("count steps: %v", err)
	}
	if steps != 300 {
		t.Fatalf("indexed steps=%d want 300", steps)
	}
	snaps, err := indexdb.Snapshots(db, "ep_test", 10)
	if err != nil || len(snaps) != 3 {
		t.Fatalf("indexed snapshots: %v %v", snaps, err)
	}
}

func TestResume_MatchesUninterruptedRun(t *testing.T) {
	runDir := t.TempDir()
	full := testRunner(t, runDir, false).run(context.Background(), "greedy", 0)
	if full.Err != nil {
		t.Fatalf("run: %v", full.Err)
	}

	// The greedy macro queue is empty at step 200, so a fresh policy picks up identically.
	snap, err := snapshot.ReadSnapshot(snapshot.PathFor(runDir, "ep_test", 200))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	other := testRunner(t, t.TempDir(), false)
	res, err := other.resume(context.Background(), snap)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Summary.Digest != full.Summary.Digest || res.Summary.Return != full.Summary.Return {
		t.Fatalf("resumed %s/%v want %s/%v", res.Summary.Digest, res.Summary.Return, full.Summary.Digest, full.Summary.Return)
	}
}

func TestRun_InterruptLeavesCheckpoint(t *testing.T) {
	runDir := t.TempDir()
	r := testRunner(t, runDir, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.run(ctx, "wait", 0)
	if !errors.Is(res.Err, errInterrupted) {
		t.Fatalf("err=%v want interrupted", res.Err)
	}
	if _, err := os.Stat(snapshot.PathFor(runDir, "ep_test", 0)); err != nil {
		t.Fatalf("interrupt checkpoint: %v", err)
	}
}

func TestRunAll_PoolRunsEveryEpisode(t *testing.T) {
	runDir := t.TempDir()
	r := testRunner(t, runDir, false)
	n := 0
	r.newEpisodeID = func() string {
		r.archiveMu.Lock()
		defer r.archiveMu.Unlock()
		n++
		return "ep_" + string(rune('a'+n))
	}
	results := r.runAll(context.Background(), "random", 1, 5, 3)
	if len(results) != 5 {
		t.Fatalf("results=%d want 5", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("episode %s: %v", res.EpisodeID, res.Err)
		}
	}
}
