package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun inserts a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateRun(context.Background(), Run{
		ID:       id,
		Topology: "testdata/factory",
		Summary:  Summary{Sources: 1, Belts: 2, Sinks: 1},
	})
	if err != nil {
		t.Fatalf("CreateRun(%s) failed: %v", id, err)
	}
}
