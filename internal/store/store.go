package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/taskboard/internal/model"
)

// Keys used in the local key-value store.
const (
	KeyTasks           = "tasks"
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"
)

// KV is the durable local key-value store the gateway writes through.
// Get reports ok=false for a missing key; absence is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open opens the backend selected by cfg, creating the parent directory of
// the database file when needed.
func Open(cfg model.StorageConfig) (KV, error) {
	path := cfg.Path
	if path == "" {
		path = model.DefaultDataPath(cfg.Backend)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	switch cfg.Backend {
	case model.BackendSQLite, "":
		return NewSQLiteStore(path)
	case model.BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
