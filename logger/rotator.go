package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Rotator implements io.Writer and rotates the file when it exceeds
// MaxSize bytes, keeping MaxBackups older files named <Filename>.1, .2...
type Rotator struct {
	Filename   string
	MaxSize    int64
	MaxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

func (r *Rotator) openExistingOrNew() error {
	if err := os.MkdirAll(filepath.Dir(r.Filename), 0o755); err != nil {
		return err
	}
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}
	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

// Write rotates the file first if p would make it exceed MaxSize.
func (r *Rotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err = r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}

	if r.MaxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			// keep writing into the current file.
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Sync flushes the current file.
func (r *Rotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

// Close closes the current file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate shifts the backups (log.1 -> log.2, log -> log.1) and opens a new
// file. The oldest backup beyond MaxBackups is overwritten.
func (r *Rotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	r.file = nil

	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1)); err != nil {
			return err
		}
	}
	if r.MaxBackups > 0 {
		if err := os.Rename(r.Filename, r.Filename+".1"); err != nil {
			return err
		}
	}
	return r.openNew()
}
