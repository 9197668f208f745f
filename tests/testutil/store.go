package testutil

import (
	"path/filepath"
	"testing"

	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestBoltStore creates a BoltStore in a temporary directory.
func NewTestBoltStore(t *testing.T) *store.BoltStore {
	t.Helper()

	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "test.bolt"))
	if err != nil {
		t.Fatalf("creating bolt test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing bolt test store: %v", err)
		}
	})

	return s
}

// NewTestGateway returns a Gateway over a fresh in-memory SQLite store.
func NewTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	return store.NewGateway(NewTestStore(t))
}
