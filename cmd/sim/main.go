package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"ogamesim/internal/persistence/indexdb"
	persistlog "ogamesim/internal/persistence/log"
	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/sim/policy"
	"ogamesim/internal/sim/tuning"
)

// options is one sim invocation as parsed from the command line.
type options struct {
	tuningPath    string
	dataDir       string
	runID         string
	policyName    string
	seed          int64
	episodes      int
	workers       int
	maxSteps      int
	snapshotEvery int
	disableDB     bool
	disableSteps  bool
	resumePath    string

	// newEpisodeID overrides the random episode ids.
	newEpisodeID func() string
}

func main() {
	var o options
	flag.StringVar(&o.tuningPath, "tuning", "./configs/tuning.yaml", "path to tuning.yaml (empty: built-in defaults)")
	flag.StringVar(&o.dataDir, "data", "./data", "runtime data directory")
	flag.StringVar(&o.runID, "run", "", "run id (default: random)")
	flag.StringVar(&o.policyName, "policy", "greedy", "action source: "+strings.Join(policy.Names, ", "))
	flag.Int64Var(&o.seed, "seed", 1, "base seed; episode i uses seed+i")
	flag.IntVar(&o.episodes, "episodes", 1, "number of episodes to run")
	flag.IntVar(&o.workers, "workers", 1, "episodes simulated concurrently")
	flag.IntVar(&o.maxSteps, "max_steps", 0, "override episode.max_steps (0: use tuning)")
	flag.IntVar(&o.snapshotEvery, "snapshot_every", -1, "override episode.snapshot_every_steps (-1: use tuning, 0: only final)")
	flag.BoolVar(&o.disableDB, "disable_db", false, "disable the sqlite index")
	flag.BoolVar(&o.disableSteps, "disable_step_log", false, "do not write per-step logs")
	flag.StringVar(&o.resumePath, "resume", "", "snapshot to resume; runs that single episode to completion")
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signalContext()
	code := execute(ctx, o, logger)
	cancel()
	os.Exit(code)
}

// execute runs one invocation and returns the process exit code. The index
// and the summary log are closed before it returns, so queued rows and the
// last summary reach disk even when episodes fail or the run is interrupted.
func execute(ctx context.Context, o options, logger *log.Logger) int {
	tune, err := tuning.Load(o.tuningPath)
	if err != nil {
		logger.Printf("load tuning: %v", err)
		return 1
	}
	if o.maxSteps > 0 {
		tune.Episode.MaxSteps = o.maxSteps
	}
	if o.snapshotEvery >= 0 {
		tune.Episode.SnapshotEverySteps = o.snapshotEvery
	}
	if err := tune.Validate(); err != nil {
		logger.Printf("tuning: %v", err)
		return 1
	}
	if _, err := policy.ByName(o.policyName, o.seed); err != nil {
		logger.Printf("%v", err)
		return 1
	}

	id := strings.TrimSpace(o.runID)
	if id == "" {
		id = "run_" + uuid.NewString()[:8]
	}
	runDir := filepath.Join(o.dataDir, "runs", id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Printf("create run dir: %v", err)
		return 1
	}

	var idx *indexdb.SQLiteIndex
	if !o.disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(runDir, "index", "run.sqlite"))
		if err != nil {
			logger.Printf("open index: %v", err)
			return 1
		}
		defer func() {
			if err := idx.Close(); err != nil {
				logger.Printf("close index: %v", err)
			}
		}()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
	}

	summaries := persistlog.NewSummaryLogger(runDir)
	defer func() {
		if err := summaries.Close(); err != nil {
			logger.Printf("close summaries: %v", err)
		}
	}()

	newEpisodeID := o.newEpisodeID
	if newEpisodeID == nil {
		newEpisodeID = func() string { return "ep_" + uuid.NewString() }
	}
	r := &runner{
		runDir:       runDir,
		tune:         tune,
		index:        idx,
		summaries:    summaries,
		stepLogs:     !o.disableSteps,
		logger:       logger,
		newEpisodeID: newEpisodeID,
	}

	logger.Printf("run=%s dir=%s policy=%s episodes=%d workers=%d max_steps=%d",
		id, runDir, o.policyName, o.episodes, o.workers, tune.Episode.MaxSteps)
	start := time.Now()

	var results []episodeResult
	if p := strings.TrimSpace(o.resumePath); p != "" {
		snap, err := snapshot.ReadSnapshot(p)
		if err != nil {
			logger.Printf("read snapshot: %v", err)
			return 1
		}
		res, _ := r.resume(ctx, snap)
		results = append(results, res)
	} else {
		results = r.runAll(ctx, o.policyName, o.seed, o.episodes, o.workers)
	}

	var best *episodeResult
	failed := 0
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			failed++
			logger.Printf("episode %s: %v", res.EpisodeID, res.Err)
			continue
		}
		if best == nil || res.Summary.Points > best.Summary.Points {
			best = res
		}
	}
	if best != nil {
		logger.Printf("best episode=%s points=%s colonies=%d astrophysics=%d plasma=%d",
			best.EpisodeID, humanize.Comma(int64(best.Summary.Points)), best.Summary.Colonies,
			best.Summary.Astrophysics, best.Summary.PlasmaTechnology)
	}
	if idx != nil {
		st := idx.Stats()
		if st.DropStepTotal+st.DropEpisodeTotal+st.DropSnapshotTotal+st.DropArchiveTotal > 0 {
			logger.Printf("index dropped: steps=%d episodes=%d snapshots=%d archives=%d",
				st.DropStepTotal, st.DropEpisodeTotal, st.DropSnapshotTotal, st.DropArchiveTotal)
		}
	}
	logger.Printf("done episodes=%d failed=%d elapsed=%s artefacts=%s",
		len(results), failed, time.Since(start).Round(time.Millisecond), humanize.Bytes(dirSize(runDir)))
	if failed > 0 {
		return 1
	}
	return 0
}

// runAll feeds episode indices to a fixed pool of workers.
func (r *runner) runAll(ctx context.Context, policyName string, seed int64, episodes, workers int) []episodeResult {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	out := make(chan episodeResult, episodes)

	prog := newProgress(episodes)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := r.run(ctx, policyName, seed+int64(i))
				prog.done(res)
				out <- res
			}
		}()
	}

feed:
	for i := 0; i < episodes; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	close(out)
	prog.finish()

	results := make([]episodeResult, 0, episodes)
	for res := range out {
		results = append(results, res)
	}
	return results
}

// progress redraws one status line, only when stderr is a terminal.
type progress struct {
	mu    sync.Mutex
	tty   bool
	total int
	n     int
	best  float64
}

func newProgress(total int) *progress {
	fd := os.Stderr.Fd()
	return &progress{
		total: total,
		tty:   isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (p *progress) done(res episodeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	if res.Err == nil && res.Summary.Points > p.best {
		p.best = res.Summary.Points
	}
	if p.tty {
		fmt.Fprintf(os.Stderr, "\r[sim] episodes %d/%d best=%s ", p.n, p.total, humanize.Comma(int64(p.best)))
	}
}

func (p *progress) finish() {
	if p.tty && p.n > 0 {
		fmt.Fprintln(os.Stderr)
	}
}

func dirSize(dir string) uint64 {
	var total uint64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return total
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
