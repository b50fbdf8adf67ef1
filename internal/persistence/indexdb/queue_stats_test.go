package indexdb

import (
	"testing"

	"ogamesim/internal/persistence/snapshot"
	"ogamesim/internal/protocol"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqStep, step: protocol.StepLogEntry{Step: 1}}

	_ = s.WriteStep(protocol.StepLogEntry{Step: 2})
	s.RecordEpisode(protocol.EpisodeSummary{EpisodeID: "e1"})
	s.RecordSnapshot("/tmp/00000002.snap.zst", snapshot.SnapshotV1{})
	s.RecordArchive("e1", "/tmp/archive.snap.zst", 42)

	st := s.Stats()
	if st.DropStepTotal != 1 {
		t.Fatalf("DropStepTotal=%d want=1", st.DropStepTotal)
	}
	if st.DropEpisodeTotal != 1 {
		t.Fatalf("DropEpisodeTotal=%d want=1", st.DropEpisodeTotal)
	}
	if st.DropSnapshotTotal != 1 {
		t.Fatalf("DropSnapshotTotal=%d want=1", st.DropSnapshotTotal)
	}
	if st.DropArchiveTotal != 1 {
		t.Fatalf("DropArchiveTotal=%d want=1", st.DropArchiveTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue depth/capacity=%d/%d want 1/1", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_IgnoresEmptyEpisodeID(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.RecordEpisode(protocol.EpisodeSummary{})
	s.RecordArchive("", "/tmp/x", 1)
	if len(s.ch) != 0 {
		t.Fatalf("queue depth=%d want 0", len(s.ch))
	}
}

func TestSQLiteIndex_NilIsNoop(t *testing.T) {
	var s *SQLiteIndex
	if err := s.WriteStep(protocol.StepLogEntry{}); err != nil {
		t.Fatalf("WriteStep on nil: %v", err)
	}
	s.RecordEpisode(protocol.EpisodeSummary{EpisodeID: "e1"})
	if st := s.Stats(); st != (Stats{}) {
		t.Fatalf("nil stats=%+v", st)
	}
}
