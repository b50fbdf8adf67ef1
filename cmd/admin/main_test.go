package main

import (
	"os"
	"path/filepath"
	"testing"

	"ogamesim/internal/persistence/snapshot"
)

func TestLatestSnapshot_PicksHighestStep(t *testing.T) {
	runDir := t.TempDir()
	for _, step := range []int{900, 1000, 80} {
		path := snapshot.PathFor(runDir, "ep1", step)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got, want := latestSnapshot(runDir, "ep1"), snapshot.PathFor(runDir, "ep1", 1000); got != want {
		t.Fatalf("latest=%q want %q", got, want)
	}
	if got := latestSnapshot(runDir, "missing"); got != "" {
		t.Fatalf("missing episode should yield empty path, got %q", got)
	}
}
