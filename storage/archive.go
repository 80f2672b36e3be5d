package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/etnz/stockbook"
	"go.uber.org/zap"
)

// Archive defaults.
const (
	DefaultArchiveInterval = 24 * time.Hour
	DefaultArchiveKeep     = 7
)

const (
	archivePrefix = "ledger-"
	archiveSuffix = ".json"
	archiveLayout = "20060102T150405"
)

// Archive is a point in time copy of the primary snapshot.
type Archive struct {
	Name string
	Time time.Time
	Size int64
}

// Archiver keeps timestamped copies of the primary snapshot in a directory,
// at most one per Interval, and deletes the oldest ones beyond Keep.
type Archiver struct {
	Dir      string
	Interval time.Duration // DefaultArchiveInterval if zero
	Keep     int           // DefaultArchiveKeep if zero
	Now      func() time.Time
	Log      *zap.SugaredLogger

	mu sync.Mutex
}

func (a *Archiver) interval() time.Duration {
	if a.Interval <= 0 {
		return DefaultArchiveInterval
	}
	return a.Interval
}

func (a *Archiver) keep() int {
	if a.Keep <= 0 {
		return DefaultArchiveKeep
	}
	return a.Keep
}

func (a *Archiver) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Archiver) logger() *zap.SugaredLogger {
	if a.Log == nil {
		return zap.NewNop().Sugar()
	}
	return a.Log
}

// archiveName returns the file name of an archive taken at t.
func archiveName(t time.Time) string {
	return archivePrefix + t.UTC().Format(archiveLayout) + archiveSuffix
}

// parseArchiveName returns the time encoded in an archive file name.
func parseArchiveName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
		return time.Time{}, false
	}
	t, err := time.Parse(archiveLayout, strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix))
	return t, err == nil
}

// List returns the archives, oldest first. A missing directory holds no
// archive.
func (a *Archiver) List() ([]Archive, error) {
	entries, err := os.ReadDir(a.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res []Archive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, ok := parseArchiveName(e.Name())
		if !ok {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		res = append(res, Archive{Name: e.Name(), Time: t, Size: size})
	}
	slices.SortFunc(res, func(x, y Archive) int { return x.Time.Compare(y.Time) })
	return res, nil
}

// Archive unconditionally stores data as a new archive and prunes the old
// ones. It returns the archive name.
func (a *Archiver) Archive(data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archive(data)
}

// MaybeArchive stores data only if the newest archive is at least Interval
// old. It returns the archive name, or "" if none was created.
func (a *Archiver) MaybeArchive(data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list, err := a.List()
	if err != nil {
		return "", err
	}
	if n := len(list); n > 0 && a.now().Sub(list[n-1].Time) < a.interval() {
		return "", nil
	}
	return a.archive(data)
}

func (a *Archiver) archive(data []byte) (string, error) {
	if err := stockbook.ValidateSnapshot(data); err != nil {
		return "", err
	}
	name := archiveName(a.now())
	if err := WriteFileAtomic(filepath.Join(a.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	a.logger().Infow("snapshot archived", "archive", name)
	return name, a.prune()
}

// prune deletes the oldest archives so that at most Keep remain.
func (a *Archiver) prune() error {
	list, err := a.List()
	if err != nil {
		return err
	}
	var errs []error
	for len(list) > a.keep() {
		if err := os.Remove(filepath.Join(a.Dir, list[0].Name)); err != nil {
			errs = append(errs, err)
		} else {
			a.logger().Infow("archive deleted", "archive", list[0].Name)
		}
		list = list[1:]
	}
	return errors.Join(errs...)
}

// Restore reads and decodes the archive called name.
func (a *Archiver) Restore(name string) (*stockbook.Ledger, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid archive name %q", name)
	}
	if _, ok := parseArchiveName(name); !ok {
		return nil, fmt.Errorf("invalid archive name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(a.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("archive %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	l, err := stockbook.UnmarshalLedger(data)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}
	return l, nil
}

// Run archives the content of src on start and then every Interval, until
// ctx is done. Failures are logged and do not stop the loop.
func (a *Archiver) Run(ctx context.Context, src Location) error {
	tick := func() {
		data, err := src.Read(ctx)
		if err != nil {
			a.logger().Warnw("cannot read snapshot to archive", "location", src.Name(), "error", err)
			return
		}
		if _, err := a.MaybeArchive(data); err != nil {
			a.logger().Warnw("snapshot not archived", "error", err)
		}
	}
	tick()
	ticker := time.NewTicker(a.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}
