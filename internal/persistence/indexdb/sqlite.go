package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/protocol"
	"ogamesim/internal/sim/tuning"
)

// SQLiteIndex is a queryable read-model of a run. Writes are queued to one
// writer goroutine and dropped when it falls behind; the JSONL logs remain
// the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropStep     atomic.Uint64
	dropEpisode  atomic.Uint64
	dropSnapshot atomic.Uint64
	dropArchive  atomic.Uint64
}

type reqKind int

const (
	reqStep reqKind = iota + 1
	reqEpisode
	reqSnapshot
	reqArchive
)

type req struct {
	kind reqKind

	step     protocol.StepLogEntry
	episode  protocol.EpisodeSummary
	snapshot snapshotRow
	archive  archiveRow
}

type snapshotRow struct {
	EpisodeID string
	Step      int
	Path      string
	Digest    string
	Day       int
	Points    float64
	Colonies  int
}

type archiveRow struct {
	EpisodeID  string
	Path       string
	Points     float64
	RecordedAt string
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropStepTotal     uint64
	DropEpisodeTotal  uint64
	DropSnapshotTotal uint64
	DropArchiveTotal  uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Several workers can stream 8000-step episodes at once.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tuning (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			episode_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			day INTEGER NOT NULL,
			action INTEGER NOT NULL,
			target TEXT NOT NULL,
			reward REAL NOT NULL,
			code TEXT NOT NULL,
			points REAL NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (episode_id, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_code ON steps(code, episode_id);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			episode_id TEXT PRIMARY KEY,
			policy TEXT NOT NULL,
			seed INTEGER NOT NULL,
			length INTEGER NOT NULL,
			return REAL NOT NULL,
			points REAL NOT NULL,
			day INTEGER NOT NULL,
			astrophysics INTEGER NOT NULL,
			plasma_technology INTEGER NOT NULL,
			colonies INTEGER NOT NULL,
			metal_max REAL NOT NULL,
			metal_mean REAL NOT NULL,
			metal_min REAL NOT NULL,
			crystal_max REAL NOT NULL,
			crystal_mean REAL NOT NULL,
			crystal_min REAL NOT NULL,
			deut_max REAL NOT NULL,
			deut_mean REAL NOT NULL,
			deut_min REAL NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_points ON episodes(points);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_policy ON episodes(policy, points);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			episode_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			day INTEGER NOT NULL,
			points REAL NOT NULL,
			colonies INTEGER NOT NULL,
			PRIMARY KEY (episode_id, step)
		);`,
		`CREATE TABLE IF NOT EXISTS archives (
			episode_id TEXT PRIMARY KEY,
			snapshot_path TEXT NOT NULL,
			points REAL NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropStepTotal:     s.dropStep.Load(),
		DropEpisodeTotal:  s.dropEpisode.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropArchiveTotal:  s.dropArchive.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// WriteStep lets the index stand in as an episode step logger.
func (s *SQLiteIndex) WriteStep(entry protocol.StepLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqStep, step: entry}, &s.dropStep)
	return nil
}

func (s *SQLiteIndex) RecordEpisode(sum protocol.EpisodeSummary) {
	if s == nil || s.closed.Load() || sum.EpisodeID == "" {
		return
	}
	s.enqueue(req{kind: reqEpisode, episode: sum}, &s.dropEpisode)
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		EpisodeID: snap.Header.EpisodeID,
		Step:      snap.Header.Step,
		Path:      path,
		Digest:    snap.Header.Digest,
		Day:       snap.Player.Day,
		Points:    snap.Player.Points,
		Colonies:  len(snap.Player.Colonies),
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: r}, &s.dropSnapshot)
}

func (s *SQLiteIndex) RecordArchive(episodeID, archivedSnapshotPath string, points float64) {
	if s == nil || s.closed.Load() {
		return
	}
	if episodeID == "" || archivedSnapshotPath == "" {
		return
	}
	r := archiveRow{
		EpisodeID:  episodeID,
		Path:       archivedSnapshotPath,
		Points:     points,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	s.enqueue(req{kind: reqArchive, archive: r}, &s.dropArchive)
}

// UpsertTuning stores the tuning actually applied to the run.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	digest := hex.EncodeToString(sum[:])

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('protocol_version',?)`, protocol.Version); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tuning(name,digest,json,updated_at) VALUES('tuning',?,?,?)`, digest, string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertStep, _ := s.db.Prepare(`INSERT OR REPLACE INTO steps(episode_id,step,day,action,target,reward,code,points,digest) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertEpisode, _ := s.db.Prepare(`INSERT OR REPLACE INTO episodes(episode_id,policy,seed,length,return,points,day,astrophysics,plasma_technology,colonies,metal_max,metal_mean,metal_min,crystal_max,crystal_mean,crystal_min,deut_max,deut_mean,deut_min,digest,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(episode_id,step,path,digest,day,points,colonies) VALUES(?,?,?,?,?,?,?)`)
	insertArchive, _ := s.db.Prepare(`INSERT OR REPLACE INTO archives(episode_id,snapshot_path,points,recorded_at) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertStep, insertEpisode, insertSnapshot, insertArchive} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqStep:
			e := r.step
			exec(insertStep, e.EpisodeID, e.Step, e.Day, e.Action, e.Target, e.Reward, e.Code, e.Points, e.Digest)

		case reqEpisode:
			e := r.episode
			raw, _ := json.Marshal(e)
			exec(insertEpisode,
				e.EpisodeID, e.Policy, e.Seed, e.Length, e.Return, e.Points, e.Day,
				e.Astrophysics, e.PlasmaTechnology, e.Colonies,
				e.Metal.Max, e.Metal.Mean, e.Metal.Min,
				e.Crystal.Max, e.Crystal.Mean, e.Crystal.Min,
				e.Deuterium.Max, e.Deuterium.Mean, e.Deuterium.Min,
				e.Digest, string(raw),
			)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.EpisodeID, sn.Step, sn.Path, sn.Digest, sn.Day, sn.Points, sn.Colonies)

		case reqArchive:
			a := r.archive
			exec(insertArchive, a.EpisodeID, a.Path, a.Points, a.RecordedAt)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
