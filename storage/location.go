// Package storage persists ledger snapshots to several redundant locations
// and recovers the best available copy on load.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a Location that holds no snapshot yet.
var ErrNotFound = errors.New("not found")

// Location is a place a serialized snapshot can be stored into and read
// from.
type Location interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// FileLocation stores the snapshot in a single file.
type FileLocation struct {
	Path string
}

func (f FileLocation) Name() string { return f.Path }

// Read returns the file content, or ErrNotFound if it does not exist.
func (f FileLocation) Read(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.Path, ErrNotFound)
	}
	return b, err
}

// Write replaces the file atomically.
func (f FileLocation) Write(_ context.Context, data []byte) error {
	return WriteFileAtomic(f.Path, data, 0o644)
}

// WriteFileAtomic writes data to a temporary file in the same directory,
// syncs it and renames it over path, so that readers only ever see the old
// or the new content. Missing parent directories are created.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	// removing a renamed file fails harmlessly.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	// Force sync to disk before the rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// MemoryLocation is the volatile in-process cache. Its zero value is empty.
type MemoryLocation struct {
	mu   sync.RWMutex
	data []byte
}

func (m *MemoryLocation) Name() string { return "memory" }

func (m *MemoryLocation) Read(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, fmt.Errorf("memory: %w", ErrNotFound)
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryLocation) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}
