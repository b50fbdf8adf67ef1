package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"ogamesim/internal/persistence/archive"
	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/sim/episode"
	"ogamesim/internal/sim/policy"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "archive":
			archiveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id (optional; lists its episodes)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "runs")
	if *runID != "" {
		base = filepath.Join(base, *runID, "episodes")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id")
	episodeID := fs.String("episode", "", "episode id")
	snapPath := fs.String("path", "", "snapshot path (optional; defaults to the episode's latest)")
	verify := fs.Bool("verify", true, "rebuild the player and check the recorded digest")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if *runID == "" || *episodeID == "" {
			fmt.Fprintln(os.Stderr, "missing -path or -run/-episode")
			os.Exit(2)
		}
		path = latestSnapshot(filepath.Join(*dataDir, "runs", *runID), *episodeID)
		if path == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found for episode", *episodeID)
			os.Exit(2)
		}
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d episode=%s step=%d/%d policy=%s seed=%d day=%d points=%s astrophysics=%d plasma=%d colonies=%d\n",
		snap.Header.Version, snap.Header.EpisodeID, snap.Step, snap.MaxSteps, snap.Policy, snap.Seed,
		snap.Player.Day, humanize.Commaf(snap.Player.Points), snap.Player.AstrophysicsLevel,
		snap.Player.PlasmaLevel, len(snap.Player.Colonies))
	for i, c := range snap.Player.Colonies {
		fmt.Printf("  colony[%d] T=%v metal=%d crystal=%d deuterium=%d\n", i, c.MaxTemperature, c.Levels[0], c.Levels[1], c.Levels[2])
	}

	if !*verify {
		return
	}
	env := episode.New(episode.DefaultConfig())
	if err := env.Resume(snap); err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	fmt.Printf("verify ok: digest=%s\n", snap.Header.Digest)
}

func archiveCmd(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id")
	_ = fs.Parse(args)

	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}
	runDir := filepath.Join(*dataDir, "runs", *runID)
	found := false
	for _, name := range policy.Names {
		meta, ok, err := archive.ReadMeta(runDir, name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read archive:", err)
			os.Exit(1)
		}
		if ok {
			found = true
			printJSON(meta)
		}
	}
	if !found {
		fmt.Println("no archived episodes")
	}
}

// latestSnapshot picks the highest-step checkpoint of one episode.
func latestSnapshot(runDir, episodeID string) string {
	dir := filepath.Dir(snapshot.PathFor(runDir, episodeID, 0))
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var steps []int
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		step, err := strconv.Atoi(strings.TrimSuffix(name, ".snap.zst"))
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return ""
	}
	sort.Ints(steps)
	return snapshot.PathFor(runDir, episodeID, steps[len(steps)-1])
}
