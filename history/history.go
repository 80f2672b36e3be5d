// Package history records the daily aggregates of the ledger.
//
// The file form is a single JSON object mapping ISO dates to aggregates:
//
//	{
//	  "2025-03-14": {"total_investment": 1000, "total_value": 1100, ...}
//	}
//
// Writing twice the same date replaces the previous entry.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/date"
	"github.com/etnz/stockbook/storage"
	"go.uber.org/zap"
)

// DefaultFile is the default history file name in the data directory.
const DefaultFile = "history.json"

// History is the daily aggregates, ordered by date.
type History = date.History[stockbook.DailySnapshot]

// FileRecorder keeps the whole history in one JSON file.
type FileRecorder struct {
	path string
	log  *zap.SugaredLogger
	mu   sync.Mutex
}

// NewFileRecorder returns a recorder writing into path.
func NewFileRecorder(path string, log *zap.SugaredLogger) *FileRecorder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FileRecorder{path: path, log: log}
}

// Path returns the history file.
func (r *FileRecorder) Path() string { return r.path }

// Load reads the history. A missing file is an empty history; an unreadable
// one is an error wrapping stockbook.ErrStorageIntegrity.
func (r *FileRecorder) Load(_ context.Context) (*History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileRecorder) load() (*History, error) {
	h := new(History)
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return h, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return h, nil
	}
	var days map[date.Date]stockbook.DailySnapshot
	if err := json.Unmarshal(data, &days); err != nil {
		return h, fmt.Errorf("%s: %w: %v", r.path, stockbook.ErrStorageIntegrity, err)
	}
	for on, s := range days {
		h.Append(on, s)
	}
	return h, nil
}

// RecordDaily sets the aggregates of a date and rewrites the file
// atomically. A corrupt file is logged and replaced by a history starting
// with this entry.
func (r *FileRecorder) RecordDaily(_ context.Context, on date.Date, s stockbook.DailySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.load()
	if err != nil {
		r.log.Warnw("history file unreadable, starting over", "path", r.path, "error", err)
		h = new(History)
	}
	h.Append(on, s)

	data, err := encode(h)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", stockbook.ErrStorageWrite, err)
	}
	return nil
}

// encode returns the file form of h, dates in ascending order.
func encode(h *History) ([]byte, error) {
	days := make(map[date.Date]stockbook.DailySnapshot, h.Len())
	for on, s := range h.Values() {
		days[on] = s
	}
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
