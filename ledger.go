package stockbook

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the complete state of a portfolio: positions, cash, the trade
// journal, realized profits, memos and alert thresholds.
//
// The Ledger is only mutated by an AccountingSystem; its accessors return
// copies.
type Ledger struct {
	currency        string
	positions       []*Position // in first-acquired order
	index           map[string]*Position
	cash            Money
	transactions    []Transaction
	realized        []RealizedTrade
	memos           map[string][]Memo
	thresholds      map[string]Thresholds
	totalCommission Money
	best, worst     *RealizedTrade
	cashFlows       []CashFlow
	lastUpdated     time.Time
}

// NewLedger creates an empty ledger. The currency is only used to format
// amounts.
func NewLedger(currency string) *Ledger {
	return &Ledger{
		currency:   currency,
		index:      make(map[string]*Position),
		memos:      make(map[string][]Memo),
		thresholds: make(map[string]Thresholds),
	}
}

// Currency returns the ISO code used to format amounts, possibly empty.
func (l *Ledger) Currency() string { return l.currency }

// SetCurrency changes the currency used to format amounts.
func (l *Ledger) SetCurrency(cur string) { l.currency = cur }

// Cash returns the cash balance.
func (l *Ledger) Cash() Money { return l.cash }

// TotalCommission returns the sum of all commissions paid.
func (l *Ledger) TotalCommission() Money { return l.totalCommission }

// LastUpdated returns the time the ledger was last saved.
func (l *Ledger) LastUpdated() time.Time { return l.lastUpdated }

// Touch sets the last updated time.
func (l *Ledger) Touch(on time.Time) { l.lastUpdated = on }

// Position returns the position held in symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.index[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Len returns the number of positions held.
func (l *Ledger) Len() int { return len(l.positions) }

// Positions returns an iterator over the positions in first-acquired order.
func (l *Ledger) Positions() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for _, p := range l.positions {
			if !yield(*p) {
				return
			}
		}
	}
}

// Symbols returns the symbols held, in first-acquired order.
func (l *Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l.positions))
	for _, p := range l.positions {
		symbols = append(symbols, p.Symbol)
	}
	return symbols
}

// Transactions returns an iterator over all trades in insertion order.
func (l *Ledger) Transactions() iter.Seq[Transaction] { return slices.Values(l.transactions) }

// Realized returns an iterator over all realized trades in insertion order.
func (l *Ledger) Realized() iter.Seq[RealizedTrade] { return slices.Values(l.realized) }

// CashFlows returns an iterator over deposits and withdrawals.
func (l *Ledger) CashFlows() iter.Seq[CashFlow] { return slices.Values(l.cashFlows) }

// Best returns the realized trade with the highest return.
func (l *Ledger) Best() (RealizedTrade, bool) {
	if l.best == nil {
		return RealizedTrade{}, false
	}
	return *l.best, true
}

// Worst returns the realized trade with the lowest return.
func (l *Ledger) Worst() (RealizedTrade, bool) {
	if l.worst == nil {
		return RealizedTrade{}, false
	}
	return *l.worst, true
}

// Memos returns the memos attached to symbol, oldest first.
func (l *Ledger) Memos(symbol string) []Memo { return slices.Clone(l.memos[symbol]) }

// MemoSymbols returns the sorted list of symbols with at least one memo.
func (l *Ledger) MemoSymbols() []string { return slices.Sorted(maps.Keys(l.memos)) }

// Thresholds returns the alert thresholds of symbol.
func (l *Ledger) Thresholds(symbol string) (Thresholds, bool) {
	t, ok := l.thresholds[symbol]
	return t, ok
}

// AllThresholds iterates over thresholds sorted by symbol.
func (l *Ledger) AllThresholds() iter.Seq2[string, Thresholds] {
	return func(yield func(string, Thresholds) bool) {
		for _, sym := range slices.Sorted(maps.Keys(l.thresholds)) {
			if !yield(sym, l.thresholds[sym]) {
				return
			}
		}
	}
}

// Alerts returns the alerts raised by the current unrealized returns.
func (l *Ledger) Alerts() []Alert {
	var alerts []Alert
	for _, p := range l.positions {
		if t, ok := l.thresholds[p.Symbol]; ok {
			alerts = append(alerts, t.check(p.Symbol, p.UnrealizedPct)...)
		}
	}
	return alerts
}

// Totals aggregates the valuation of the whole ledger.
type Totals struct {
	Invested    Money           // sum of Quantity*CostBasis
	MarketValue Money           // sum of Quantity*LastPrice
	Profit      Money           // MarketValue - Invested
	ReturnRate  decimal.Decimal // Profit / Invested * 100
	Cash        Money
	Assets      Money // MarketValue + Cash
	Count       int
}

// Totals computes the aggregated valuation.
func (l *Ledger) Totals() Totals {
	var t Totals
	for _, p := range l.positions {
		t.Invested = t.Invested.Add(p.Invested())
		t.MarketValue = t.MarketValue.Add(p.MarketValue())
	}
	t.Profit = t.MarketValue.Sub(t.Invested)
	t.ReturnRate = percentChange(t.Invested.Decimal(), t.MarketValue.Decimal())
	t.Cash = l.cash
	t.Assets = t.MarketValue.Add(l.cash)
	t.Count = len(l.positions)
	return t
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger(l.currency)
	for _, p := range l.positions {
		c.addPosition(*p)
	}
	c.cash = l.cash
	c.transactions = slices.Clone(l.transactions)
	c.realized = slices.Clone(l.realized)
	for sym, m := range l.memos {
		c.memos[sym] = slices.Clone(m)
	}
	maps.Copy(c.thresholds, l.thresholds)
	c.totalCommission = l.totalCommission
	if l.best != nil {
		b := *l.best
		c.best = &b
	}
	if l.worst != nil {
		w := *l.worst
		c.worst = &w
	}
	c.cashFlows = slices.Clone(l.cashFlows)
	c.lastUpdated = l.lastUpdated
	return c
}

// addPosition appends a new position, or replaces an existing one in place.
func (l *Ledger) addPosition(p Position) {
	p.revalue()
	if old, ok := l.index[p.Symbol]; ok {
		*old = p
		return
	}
	np := &p
	l.positions = append(l.positions, np)
	l.index[p.Symbol] = np
}

// removePosition drops the position held in symbol.
func (l *Ledger) removePosition(symbol string) {
	delete(l.index, symbol)
	l.positions = slices.DeleteFunc(l.positions, func(p *Position) bool { return p.Symbol == symbol })
}

// addMemo appends a memo to symbol; empty texts are ignored.
func (l *Ledger) addMemo(symbol string, m Memo) {
	if m.Text == "" {
		return
	}
	l.memos[symbol] = append(l.memos[symbol], m)
}

// recordRealized appends r and updates the best and worst trades. Ties keep
// the first trade seen.
func (l *Ledger) recordRealized(r RealizedTrade) {
	l.realized = append(l.realized, r)
	if l.best == nil || r.Pct.GreaterThan(l.best.Pct) {
		b := r
		l.best = &b
	}
	if l.worst == nil || r.Pct.LessThan(l.worst.Pct) {
		w := r
		l.worst = &w
	}
}

// revalue recomputes the derived fields of all positions.
func (l *Ledger) revalue() {
	for _, p := range l.positions {
		p.revalue()
	}
}
