package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "ogamesim/internal/persistence/log"
	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/sim/episode"
	"ogamesim/internal/sim/tuning"
)

func main() {
	var (
		episodeDir = flag.String("episode", "", "episode dir containing steps/steps-*.jsonl.zst")
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to start from (optional; default: fresh episode)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (fresh episodes only)")
		fromStep   = flag.Int("from_step", 0, "start verifying from step (inclusive, optional)")
		toStep     = flag.Int("to_step", 0, "stop at step (inclusive, optional)")
	)
	flag.Parse()

	if *episodeDir == "" {
		fmt.Fprintln(os.Stderr, "missing -episode")
		os.Exit(2)
	}

	var env *episode.Env
	var sink lastStep
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d episode=%s step=%d policy=%s seed=%d day=%d colonies=%d\n",
			snap.Header.Version, snap.Header.EpisodeID, snap.Header.Step, snap.Policy, snap.Seed,
			snap.Player.Day, len(snap.Player.Colonies))
		env = episode.New(episode.DefaultConfig(), episode.WithStepLogger(&sink))
		if err := env.Resume(snap); err != nil {
			fmt.Fprintln(os.Stderr, "resume:", err)
			os.Exit(1)
		}
	} else {
		tune, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		cfg := episode.ConfigFromTuning(tune)
		// The log decides where the episode ends.
		cfg.MaxSteps = 0
		env = episode.New(cfg, episode.WithStepLogger(&sink))
	}

	files, err := persistlog.ListFiles(filepath.Join(*episodeDir, "steps"), persistlog.StepPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list steps:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no step files found in", *episodeDir)
		os.Exit(1)
	}

	start := env.Steps()
	files = persistlog.StepFilesFrom(files, start+1)
	r := &replayer{env: env, sink: &sink, verifyFrom: *fromStep, toStep: *toStep}
	for _, path := range files {
		if err := r.replayFile(path); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if r.stopped {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d steps (from step=%d) final_step=%d digest=%s\n",
		r.checked, start, env.Steps(), sink.entry.Digest)
}
