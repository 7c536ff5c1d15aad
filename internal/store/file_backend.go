package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const backupSuffix = ".bak"

// FileBackend stores each key as <dir>/<key>.json. The previous version of a
// key is kept as <key>.json.bak.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, false, nil
	}
	return b, true, nil
}

func (f *FileBackend) Put(_ context.Context, key string, value []byte) error {
	path := f.path(key)
	if _, err := os.Stat(path); err == nil {
		// Best effort; a missing backup never blocks the write.
		_ = CopyFile(path, path+backupSuffix)
	}
	return writeFileAtomic(path, value)
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) WatchPaths() []string {
	return []string{f.path(TasksKey)}
}
