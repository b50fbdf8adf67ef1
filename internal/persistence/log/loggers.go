package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"ogamesim/internal/protocol"
)

// JSONLZstdWriter appends JSON lines to <prefix>-<segment>.jsonl.zst files.
// The caller names the segment of every record, so the file layout follows
// the records alone and two runs of the same episode produce the same names.
// Files are opened for append: reopening a segment starts a new zstd frame
// after the existing ones, and readers decode the frames in sequence.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	segment int64
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

const (
	StepPrefix    = "steps"
	SummaryPrefix = "episodes"

	// DefaultStepSegment is the step count per step log file.
	DefaultStepSegment = 1000
)

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

// Close finishes the open frame. A later Write reopens the segment.
func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(segment int64, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil || segment != w.segment {
		if err := w.openLocked(segment); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) openLocked(segment int64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.PathFor(segment)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.segment = segment
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1, err2 error
	if w.w != nil {
		err1 = w.w.Flush()
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		err2 = w.f.Close()
		w.f = nil
	}
	w.w = nil
	if err1 != nil {
		return err1
	}
	return err2
}

// PathFor is the file holding segment. Eight digits keep lexical order equal
// to numeric order.
func (w *JSONLZstdWriter) PathFor(segment int64) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%08d.jsonl.zst", w.prefix, segment))
}

// StepLogger writes one JSONL entry per episode step (compressed). Steps
// 1..n go to steps-00000001, n+1..2n to steps-<n+1>, and so on.
type StepLogger struct {
	w     *JSONLZstdWriter
	every int
}

// NewStepLogger logs under <episodeDir>/steps with segmentSteps steps per
// file; values below 1 use DefaultStepSegment.
func NewStepLogger(episodeDir string, segmentSteps int) *StepLogger {
	if segmentSteps < 1 {
		segmentSteps = DefaultStepSegment
	}
	return &StepLogger{
		w:     NewJSONLZstdWriter(filepath.Join(episodeDir, "steps"), StepPrefix),
		every: segmentSteps,
	}
}

// SegmentStart is the first step stored in the same file as step.
func SegmentStart(step, segmentSteps int) int64 {
	if step < 1 || segmentSteps < 1 {
		return 1
	}
	return int64((step-1)/segmentSteps*segmentSteps + 1)
}

func (l *StepLogger) WriteStep(v protocol.StepLogEntry) error {
	return l.w.Write(SegmentStart(v.Step, l.every), v)
}

func (l *StepLogger) Close() error { return l.w.Close() }

// SummaryLogger appends one JSONL entry per finished episode to
// <runDir>/summaries/episodes-00000000.jsonl.zst. Every summary is its own
// zstd frame, so the file stays readable whenever a run stops.
type SummaryLogger struct{ w *JSONLZstdWriter }

func NewSummaryLogger(runDir string) *SummaryLogger {
	return &SummaryLogger{w: NewJSONLZstdWriter(filepath.Join(runDir, "summaries"), SummaryPrefix)}
}

func (l *SummaryLogger) WriteSummary(v protocol.EpisodeSummary) error {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	if err := l.w.openLocked(0); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		_ = l.w.closeLocked()
		return err
	}
	b = append(b, '\n')
	if _, err := l.w.w.Write(b); err != nil {
		_ = l.w.closeLocked()
		return err
	}
	return l.w.closeLocked()
}

func (l *SummaryLogger) Close() error { return l.w.Close() }
