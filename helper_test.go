package stockbook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etnz/stockbook/date"
	"github.com/shopspring/decimal"
)

// testNow is the fixed clock of test accounting systems.
var testNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

// fakeGateway serves fixed prices; unknown symbols fail.
type fakeGateway struct {
	prices map[string]float64
	yields map[string]float64
	calls  int
}

func (g *fakeGateway) LastPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	g.calls++
	p, ok := g.prices[symbol]
	if !ok {
		return decimal.Zero, errors.New("unknown symbol")
	}
	return decimal.NewFromFloat(p), nil
}

func (g *fakeGateway) DividendYield(_ context.Context, symbol string) (decimal.Decimal, bool) {
	y, ok := g.yields[symbol]
	return decimal.NewFromFloat(y), ok
}

// memPersister keeps the last saved snapshot; it fails when err is set.
type memPersister struct {
	saves int
	last  []byte
	err   error
}

func (p *memPersister) Save(_ context.Context, l *Ledger) error {
	p.saves++
	if p.err != nil {
		return p.err
	}
	b, err := MarshalLedger(l)
	if err != nil {
		return err
	}
	p.last = b
	return nil
}

// memRecorder keeps the daily snapshots in a history.
type memRecorder struct {
	history date.History[DailySnapshot]
}

func (r *memRecorder) RecordDaily(_ context.Context, on date.Date, s DailySnapshot) error {
	r.history.Append(on, s)
	return nil
}

// newTestSystem returns an accounting system with a 0.1% commission rate,
// the given cash and prices.
func newTestSystem(t *testing.T, cash float64, prices map[string]float64) (*AccountingSystem, *fakeGateway, *memPersister) {
	t.Helper()
	g := &fakeGateway{prices: prices}
	p := &memPersister{}
	as, err := NewAccountingSystem(NewLedger("USD"), g,
		WithPersister(p),
		WithCommissionRate(decimal.RequireFromString("0.001")),
		WithClock(func() time.Time { return testNow }),
	)
	if err != nil {
		t.Fatalf("NewAccountingSystem() error = %v", err)
	}
	if cash > 0 {
		if _, err := as.Deposit(context.Background(), M(cash), "initial"); err != nil {
			t.Fatalf("Deposit(%v) error = %v", cash, err)
		}
	}
	return as, g, p
}

func assertMoney(t *testing.T, name string, got Money, want float64) {
	t.Helper()
	if !got.Equal(M(want)) {
		t.Errorf("%s = %v, want %v", name, got.Decimal(), want)
	}
}
