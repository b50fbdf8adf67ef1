package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"ogamesim/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	policyName := fs.String("policy", "", "policy filter (episodes)")
	episodeID := fs.String("episode", "", "episode id (snapshots filter; required for codes)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "episodes"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*runID) == "" {
			fmt.Fprintln(os.Stderr, "missing -run or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "runs", *runID, "index", "run.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "episodes":
		rows, err := indexdb.TopEpisodes(db, *policyName, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "snapshots":
		rows, err := indexdb.Snapshots(db, *episodeID, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "codes":
		if strings.TrimSpace(*episodeID) == "" {
			fmt.Fprintln(os.Stderr, "missing -episode")
			os.Exit(2)
		}
		counts, err := indexdb.CodeCounts(db, *episodeID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		printJSON(struct {
			EpisodeID string         `json:"episode_id"`
			Codes     map[string]int `json:"codes"`
		}{*episodeID, counts})

	case "tuning":
		var digest, raw string
		if err := db.QueryRow(`SELECT digest,json FROM tuning WHERE name='tuning'`).Scan(&digest, &raw); err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		printJSON(struct {
			Digest string          `json:"digest"`
			Tuning json.RawMessage `json:"tuning"`
		}{digest, json.RawMessage(raw)})

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-run RUN|-db PATH] [-policy P] [-episode E] episodes|snapshots|codes|tuning")
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
