package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"ogamesim/internal/persistence/snapshot"
)

type BestArchiveMeta struct {
	Policy    string  `json:"policy"`
	EpisodeID string  `json:"episode_id"`
	Seed      int64   `json:"seed"`
	Step      int     `json:"step"`
	Points    float64 `json:"points"`
	Digest    string  `json:"digest"`
	Snapshot  string  `json:"snapshot"`
	CreatedAt string  `json:"created_at"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Dir is where the best episode of a policy is kept.
func Dir(runDir, policy string) string {
	if policy == "" {
		policy = "unknown"
	}
	return filepath.Join(runDir, "archives", "best_"+unsafeName.ReplaceAllString(policy, "_"))
}

// ReadMeta returns the current best-episode record for a policy.
// ok is false when nothing has been archived yet.
func ReadMeta(runDir, policy string) (meta BestArchiveMeta, ok bool, err error) {
	b, err := os.ReadFile(filepath.Join(Dir(runDir, policy), "meta.json"))
	if errors.Is(err, os.ErrNotExist) {
		return BestArchiveMeta{}, false, nil
	}
	if err != nil {
		return BestArchiveMeta{}, false, err
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return BestArchiveMeta{}, false, fmt.Errorf("archive meta: %w", err)
	}
	return meta, true, nil
}

// ArchiveIfBest copies a terminal episode snapshot into `runDir/archives/best_<policy>/`
// when its points beat the episode currently archived for that policy.
// Ties keep the earlier archive.
func ArchiveIfBest(runDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	cur, ok, err := ReadMeta(runDir, snap.Policy)
	if err != nil {
		return "", false, err
	}
	if ok && snap.Player.Points <= cur.Points {
		return "", false, nil
	}

	dir := Dir(runDir, snap.Policy)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, "best.snap.zst")
	tmp := dst + ".tmp"
	if err := copyFile(snapshotPath, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", false, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", false, err
	}

	meta := BestArchiveMeta{
		Policy:    snap.Policy,
		EpisodeID: snap.Header.EpisodeID,
		Seed:      snap.Seed,
		Step:      snap.Header.Step,
		Points:    snap.Player.Points,
		Digest:    snap.Header.Digest,
		Snapshot:  filepath.Base(snapshotPath),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
