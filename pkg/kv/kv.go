// Package kv provides the small key/value stores that hold the session and
// the per-window view preferences between runs.
package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Store is a durable string key/value map. Get reports false for a missing
// key; an error is only returned when the backend itself fails.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	stateFile = "state.json"
	stateDB   = "state.db"
)

// Open opens the backend named by backend inside dir.
func Open(backend, dir string, log *zap.SugaredLogger) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(dir, stateFile), log)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, stateDB))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
