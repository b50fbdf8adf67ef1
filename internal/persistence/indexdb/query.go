package indexdb

import (
	"database/sql"
	"fmt"
)

// EpisodeRow is the flattened episodes table row used by admin listings.
type EpisodeRow struct {
	EpisodeID        string  `json:"episode_id"`
	Policy           string  `json:"policy"`
	Seed             int64   `json:"seed"`
	Length           int     `json:"episodic_length"`
	Return           float64 `json:"episodic_return"`
	Points           float64 `json:"points"`
	Day              int     `json:"day"`
	Astrophysics     int     `json:"astrophysics"`
	PlasmaTechnology int     `json:"plasma_technology"`
	Colonies         int     `json:"colonies"`
	Digest           string  `json:"digest"`
}

type SnapshotRow struct {
	EpisodeID string  `json:"episode_id"`
	Step      int     `json:"step"`
	Path      string  `json:"path"`
	Digest    string  `json:"digest"`
	Day       int     `json:"day"`
	Points    float64 `json:"points"`
	Colonies  int     `json:"colonies"`
}

// TopEpisodes lists episodes by points, best first. An empty policy matches all.
func TopEpisodes(db *sql.DB, policy string, limit int) ([]EpisodeRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT episode_id,policy,seed,length,return,points,day,astrophysics,plasma_technology,colonies,digest
		FROM episodes WHERE (?='' OR policy=?) ORDER BY points DESC, episode_id LIMIT ?`, policy, policy, limit)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()
	var out []EpisodeRow
	for rows.Next() {
		var r EpisodeRow
		if err := rows.Scan(&r.EpisodeID, &r.Policy, &r.Seed, &r.Length, &r.Return, &r.Points, &r.Day,
			&r.Astrophysics, &r.PlasmaTechnology, &r.Colonies, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Snapshots lists checkpoints, newest step first. An empty episode id matches all.
func Snapshots(db *sql.DB, episodeID string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT episode_id,step,path,digest,day,points,colonies
		FROM snapshots WHERE (?='' OR episode_id=?) ORDER BY step DESC, episode_id LIMIT ?`, episodeID, episodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()
	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		if err := rows.Scan(&r.EpisodeID, &r.Step, &r.Path, &r.Digest, &r.Day, &r.Points, &r.Colonies); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CodeCounts counts step outcomes per code for one episode ("" counts successes).
func CodeCounts(db *sql.DB, episodeID string) (map[string]int, error) {
	rows, err := db.Query(`SELECT code, COUNT(*) FROM steps WHERE episode_id=? GROUP BY code`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		out[code] = n
	}
	return out, rows.Err()
}
