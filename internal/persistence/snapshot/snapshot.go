package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	EpisodeID string `json:"episode_id"`
	Step      int    `json:"step"`
	Digest    string `json:"digest"`
}

// SnapshotV1 checkpoints one running episode.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Policy string `json:"policy,omitempty"`
	Seed   int64  `json:"seed,omitempty"`

	// Economy parameters the player was created with.
	MaxColonySlots       int           `json:"max_colony_slots"`
	ColonyMaxTemperature float64       `json:"colony_max_temperature"`
	Exploration          ExplorationV1 `json:"exploration"`
	MaxSteps             int           `json:"max_steps"`

	Step   int     `json:"step"`
	Return float64 `json:"return"`

	Player PlayerV1 `json:"player"`
}

type ExplorationV1 struct {
	BucketSize float64 `json:"bucket_size"`
	ScoreCap   float64 `json:"score_cap"`
	MaxValue   float64 `json:"max_value"`
}

type PlayerV1 struct {
	Resources         [3]float64 `json:"resources"`
	Points            float64    `json:"points"`
	Day               int        `json:"day"`
	AstrophysicsLevel int        `json:"astrophysics_level"`
	PlasmaLevel       int        `json:"plasma_level"`
	Colonies          []ColonyV1 `json:"colonies"`
	RedeemedBuckets   []int      `json:"redeemed_buckets,omitempty"`
}

type ColonyV1 struct {
	MaxTemperature float64 `json:"max_temperature"`
	// Metal, crystal, deuterium.
	Levels [3]int `json:"levels"`
}

var ErrVersion = errors.New("unsupported snapshot version")

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// PathFor is the conventional checkpoint location inside a run directory.
func PathFor(runDir, episodeID string, step int) string {
	return filepath.Join(runDir, "snapshots", episodeID, fmt.Sprintf("%08d.snap.zst", step))
}
