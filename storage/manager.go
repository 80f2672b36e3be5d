package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/etnz/stockbook"
	"go.uber.org/zap"
)

// Default file names, relative to the data directory.
const (
	PrimaryFile = "ledger.json"
	Backup1File = "backup/ledger.backup1.json"
	Backup2File = "backup/ledger.backup2.json"
	ArchiveDir  = "archive"
)

// DefaultLocations returns the three redundant file locations of a data
// directory, in load priority order.
func DefaultLocations(dir string) []Location {
	return []Location{
		FileLocation{Path: filepath.Join(dir, PrimaryFile)},
		FileLocation{Path: filepath.Join(dir, Backup1File)},
		FileLocation{Path: filepath.Join(dir, Backup2File)},
	}
}

// Manager saves a ledger to every location and loads it back from the first
// valid one. The in-process cache is always the last resort.
type Manager struct {
	mu        sync.Mutex
	locations []Location
	cache     *MemoryLocation
	archiver  *Archiver
	currency  string
	now       func() time.Time
	log       *zap.SugaredLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithArchiver offers every successful primary write to a.
func WithArchiver(a *Archiver) Option { return func(m *Manager) { m.archiver = a } }

// WithCurrency sets the currency of the empty ledger returned when nothing
// can be recovered.
func WithCurrency(cur string) Option { return func(m *Manager) { m.currency = cur } }

// WithClock replaces time.Now to stamp saved ledgers.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithLogger sets the logger used for non fatal failures.
func WithLogger(log *zap.SugaredLogger) Option { return func(m *Manager) { m.log = log } }

// NewManager creates a Manager over locations, the first being the primary.
func NewManager(locations []Location, opts ...Option) *Manager {
	m := &Manager{
		locations: locations,
		cache:     new(MemoryLocation),
		now:       time.Now,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Locations returns the configured locations followed by the cache.
func (m *Manager) Locations() []Location {
	return append(append([]Location(nil), m.locations...), m.cache)
}

// Archiver returns the archiver, or nil.
func (m *Manager) Archiver() *Archiver { return m.archiver }

// LocationError is the failure of a single location.
type LocationError struct {
	Location string
	Err      error
}

func (e LocationError) Error() string { return e.Location + ": " + e.Err.Error() }

// SaveError lists the locations a save could not write. It matches
// stockbook.ErrStorageWrite.
type SaveError struct {
	Failures []LocationError
}

func (e *SaveError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v: %s", stockbook.ErrStorageWrite, strings.Join(msgs, "; "))
}

func (e *SaveError) Is(target error) bool { return target == stockbook.ErrStorageWrite }

func (e *SaveError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// SaveReport is the outcome of a save, location by location.
type SaveReport struct {
	Written  []string
	Failures []LocationError
	// Archived is the name of the archive created by this save, if any.
	Archived string
}

// Err returns a *SaveError if any location failed.
func (r SaveReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &SaveError{Failures: r.Failures}
}

// Save implements stockbook.Persister.
func (m *Manager) Save(ctx context.Context, l *stockbook.Ledger) error {
	return m.Store(ctx, l).Err()
}

// Store stamps l, serializes it once and writes the same bytes to every
// location and to the cache. A failing location never stops the others.
func (m *Manager) Store(ctx context.Context, l *stockbook.Ledger) SaveReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	var r SaveReport
	l.Touch(m.now())
	data, err := stockbook.MarshalLedger(l)
	if err != nil {
		r.Failures = append(r.Failures, LocationError{Location: "encode", Err: err})
		return r
	}

	for i, loc := range m.locations {
		if err := loc.Write(ctx, data); err != nil {
			m.log.Warnw("snapshot not written", "location", loc.Name(), "error", err)
			r.Failures = append(r.Failures, LocationError{Location: loc.Name(), Err: err})
			continue
		}
		r.Written = append(r.Written, loc.Name())
		if i == 0 && m.archiver != nil {
			name, err := m.archiver.MaybeArchive(data)
			if err != nil {
				m.log.Warnw("snapshot not archived", "error", err)
			}
			r.Archived = name
		}
	}
	m.cache.Write(ctx, data)
	return r
}

// Skipped is a candidate location that could not be used on load.
type Skipped struct {
	Location string
	Err      error
}

// Recovery describes where a loaded ledger came from.
type Recovery struct {
	// Source is the name of the location the ledger was read from. It is
	// empty when nothing could be recovered.
	Source string
	// Degraded is set when the primary location was not usable.
	Degraded bool
	// Failed is set when no candidate was usable and an empty ledger was
	// returned.
	Failed bool
	// Fresh is set when no location held any snapshot: a first run.
	Fresh   bool
	Skipped []Skipped
}

// Kind summarizes the recovery as "primary", "degraded", "fresh" or
// "failed".
func (r Recovery) Kind() string {
	switch {
	case r.Fresh:
		return "fresh"
	case r.Failed:
		return "failed"
	case r.Degraded:
		return "degraded"
	}
	return "primary"
}

// Load returns the ledger of the first location holding a valid snapshot,
// trying the cache last. It never fails: when nothing is usable it returns
// an empty ledger and a Recovery with Failed set.
func (m *Manager) Load(ctx context.Context) (*stockbook.Ledger, Recovery) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var r Recovery
	candidates := append(append([]Location(nil), m.locations...), m.cache)
	for i, loc := range candidates {
		data, err := loc.Read(ctx)
		if err != nil {
			r.Skipped = append(r.Skipped, Skipped{Location: loc.Name(), Err: err})
			continue
		}
		l, err := stockbook.UnmarshalLedger(data)
		if err != nil {
			m.log.Warnw("snapshot rejected", "location", loc.Name(), "error", err)
			r.Skipped = append(r.Skipped, Skipped{Location: loc.Name(), Err: err})
			continue
		}
		r.Source = loc.Name()
		r.Degraded = i > 0
		if r.Degraded {
			m.log.Warnw("ledger recovered from a backup", "location", loc.Name(), "skipped", len(r.Skipped))
		}
		if loc != Location(m.cache) {
			m.cache.Write(ctx, data)
		}
		return l, r
	}

	r.Failed = true
	r.Fresh = true
	for _, s := range r.Skipped {
		if !errors.Is(s.Err, ErrNotFound) {
			r.Fresh = false
		}
	}
	if !r.Fresh {
		m.log.Errorw("no valid snapshot found, starting from an empty ledger", "candidates", len(candidates))
	}
	return stockbook.NewLedger(m.currency), r
}

// Status is the state of a single location as reported by Inspect.
type Status struct {
	Location    string
	Err         error
	LastUpdated time.Time
	Positions   int
	Cash        stockbook.Money
}

// Inspect reads and validates every location independently.
func (m *Manager) Inspect(ctx context.Context) []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []Status
	for _, loc := range append(append([]Location(nil), m.locations...), m.cache) {
		s := Status{Location: loc.Name()}
		data, err := loc.Read(ctx)
		if err == nil {
			var l *stockbook.Ledger
			if l, err = stockbook.UnmarshalLedger(data); err == nil {
				s.LastUpdated = l.LastUpdated()
				s.Positions = l.Len()
				s.Cash = l.Cash()
			}
		}
		s.Err = err
		res = append(res, s)
	}
	return res
}
