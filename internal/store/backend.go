package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// TasksKey is the single backend key holding the whole task mapping.
const TasksKey = "tasks"

// Backend is a durable key-value store. Get reports ok=false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Watchable backends expose the filesystem paths whose changes mean another
// process wrote new data.
type Watchable interface {
	WatchPaths() []string
}

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// OpenBackend opens the named backend rooted at dir.
func OpenBackend(ctx context.Context, kind string, dir string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, sqliteFileName))
	case BackendFile:
		return NewFileBackend(dir), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (want sqlite|file|memory)", kind)
	}
}
