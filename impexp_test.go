package stockbook

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/stockbook/date"
)

func TestWritePositionsCSV(t *testing.T) {
	l := sampleLedger(t)
	var buf bytes.Buffer
	if err := WritePositionsCSV(&buf, l); err != nil {
		t.Fatalf("WritePositionsCSV() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 1+l.Len() {
		t.Fatalf("WritePositionsCSV() rows = %d, want header + %d", len(rows), l.Len())
	}
	if rows[1][0] != "AAPL" || rows[1][1] != "12" {
		t.Errorf("first row = %v, want AAPL with 12 shares", rows[1])
	}
}

func TestExportCSV(t *testing.T) {
	l := sampleLedger(t)
	var h date.History[DailySnapshot]
	h.Append(date.New(2025, time.March, 13), l.Daily())
	h.Append(date.New(2025, time.March, 14), l.Daily())

	before, _ := MarshalLedger(l)
	dir := t.TempDir()
	if err := ExportCSV(dir, l, &h); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	after, _ := MarshalLedger(l)
	if !bytes.Equal(before, after) {
		t.Errorf("ExportCSV() modified the ledger")
	}

	want := map[string]int{
		PositionsCSV:    1 + l.Len(),
		TransactionsCSV: 1 + len(l.transactions),
		RealizedCSV:     1 + len(l.realized),
		HistoryCSV:      1 + h.Len(),
	}
	for name, n := range want {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("ExportCSV() did not write %s: %v", name, err)
			continue
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil || len(rows) != n {
			t.Errorf("%s has %d rows (err %v), want %d", name, len(rows), err, n)
		}
	}
}
