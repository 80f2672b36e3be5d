package stockbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/stockbook/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCommissionRate is the commission charged on the gross amount of a
// trade when none is configured (0.1%).
var DefaultCommissionRate = decimal.New(1, -3)

// AccountingSystem is the accounting engine: it applies buys, sells, cash
// movements and price refreshes to a Ledger and saves it after each change.
//
// It is built once per session; it is not safe for concurrent use.
type AccountingSystem struct {
	Ledger *Ledger

	gateway   Gateway
	persister Persister
	recorder  DailyRecorder
	rate      decimal.Decimal
	now       func() time.Time
	log       *zap.SugaredLogger
}

// Option configures an AccountingSystem.
type Option func(*AccountingSystem)

// WithPersister sets where the ledger is saved after each mutation.
func WithPersister(p Persister) Option { return func(as *AccountingSystem) { as.persister = p } }

// WithRecorder sets the daily history recorder used by RefreshPrices.
func WithRecorder(r DailyRecorder) Option { return func(as *AccountingSystem) { as.recorder = r } }

// WithCommissionRate sets the commission rate (e.g. 0.00015 for 0.015%).
func WithCommissionRate(rate decimal.Decimal) Option {
	return func(as *AccountingSystem) { as.rate = rate }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(as *AccountingSystem) { as.now = now } }

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option { return func(as *AccountingSystem) { as.log = log } }

// NewAccountingSystem creates an accounting system operating on ledger.
func NewAccountingSystem(ledger *Ledger, gateway Gateway, opts ...Option) (*AccountingSystem, error) {
	if ledger == nil {
		return nil, errors.New("nil ledger")
	}
	as := &AccountingSystem{
		Ledger:  ledger,
		gateway: gateway,
		rate:    DefaultCommissionRate,
		now:     time.Now,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(as)
	}
	if as.rate.IsNegative() {
		return nil, fmt.Errorf("invalid commission rate %s", as.rate)
	}
	return as, nil
}

// CommissionRate returns the commission rate in use.
func (as *AccountingSystem) CommissionRate() decimal.Decimal { return as.rate }

// Receipt is the outcome of a successful mutation.
//
// SaveErr is set when the ledger could not be stored everywhere; the
// mutation itself has been applied.
type Receipt struct {
	Transaction Transaction
	Realized    *RealizedTrade // for sells only
	CashFlow    *CashFlow      // for deposits and withdrawals
	Memo        *Memo          // for notes
	SaveErr     error
}

// Buy records the purchase of quantity shares of symbol at unitPrice.
//
// The order is rejected, leaving the ledger untouched, when the cash does not
// cover the gross amount plus commission, or when no price can be obtained
// for the symbol.
func (as *AccountingSystem) Buy(ctx context.Context, symbol string, quantity Quantity, unitPrice Money, memo string) (Receipt, error) {
	symbol, unitPrice, err := validateOrder(symbol, quantity, unitPrice)
	if err != nil {
		return Receipt{}, err
	}
	l := as.Ledger
	tx := newTransaction(as.now(), symbol, Buy, quantity, unitPrice, as.rate)
	if tx.Net.GreaterThan(l.cash) {
		return Receipt{}, &InsufficientCashError{Required: tx.Net, Available: l.cash}
	}
	price, err := lastPrice(ctx, as.gateway, symbol)
	if err != nil {
		return Receipt{}, err
	}

	pos, held := l.Position(symbol)
	if held {
		pos.merge(quantity, unitPrice)
	} else {
		pos = Position{Symbol: symbol, Quantity: quantity, CostBasis: unitPrice.Exact()}
	}
	pos.LastPrice = price
	if y, ok := as.dividendYield(ctx, symbol); ok {
		pos.DividendYield = decimal.NewNullDecimal(y)
	}
	l.addPosition(pos)

	l.cash = l.cash.Sub(tx.Net)
	l.totalCommission = l.totalCommission.Add(tx.Commission)
	l.transactions = append(l.transactions, tx)
	l.addMemo(symbol, Memo{Timestamp: tx.Timestamp, Side: Buy, Text: memo})
	as.log.Infow("buy", "symbol", symbol, "quantity", quantity, "price", unitPrice, "commission", tx.Commission)

	return Receipt{Transaction: tx, SaveErr: as.save(ctx)}, nil
}

// Sell records the sale of quantity shares of symbol at unitPrice, and the
// realized profit against the current cost basis.
//
// Selling the whole position removes it. A partial sell keeps the cost basis
// and refreshes the last price on a best effort basis.
func (as *AccountingSystem) Sell(ctx context.Context, symbol string, quantity Quantity, unitPrice Money, memo string) (Receipt, error) {
	symbol, unitPrice, err := validateOrder(symbol, quantity, unitPrice)
	if err != nil {
		return Receipt{}, err
	}
	l := as.Ledger
	pos, held := l.Position(symbol)
	if !held || pos.Quantity < quantity {
		return Receipt{}, &InsufficientSharesError{Symbol: symbol, Held: pos.Quantity, Requested: quantity}
	}

	tx := newTransaction(as.now(), symbol, Sell, quantity, unitPrice, as.rate)
	realized := newRealizedTrade(tx, pos.CostBasis)

	if pos.Quantity == quantity {
		l.removePosition(symbol)
	} else {
		pos.Quantity -= quantity
		if price, err := lastPrice(ctx, as.gateway, symbol); err != nil {
			as.log.Warnw("keeping last price after partial sell", "symbol", symbol, "error", err)
		} else {
			pos.LastPrice = price
		}
		l.addPosition(pos)
	}

	l.cash = l.cash.Add(tx.Net)
	l.totalCommission = l.totalCommission.Add(tx.Commission)
	l.transactions = append(l.transactions, tx)
	l.recordRealized(realized)
	l.addMemo(symbol, Memo{Timestamp: tx.Timestamp, Side: Sell, Text: memo})
	as.log.Infow("sell", "symbol", symbol, "quantity", quantity, "price", unitPrice, "profit", realized.Profit)

	return Receipt{Transaction: tx, Realized: &realized, SaveErr: as.save(ctx)}, nil
}

// Deposit adds cash to the ledger.
func (as *AccountingSystem) Deposit(ctx context.Context, amount Money, memo string) (Receipt, error) {
	if !amount.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: deposit amount must be positive, got %s", ErrInvalidOrder, amount)
	}
	return as.moveCash(ctx, amount.Round(), memo)
}

// Withdraw removes cash from the ledger.
func (as *AccountingSystem) Withdraw(ctx context.Context, amount Money, memo string) (Receipt, error) {
	if !amount.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: withdrawal amount must be positive, got %s", ErrInvalidOrder, amount)
	}
	amount = amount.Round()
	if amount.GreaterThan(as.Ledger.cash) {
		return Receipt{}, &InsufficientCashError{Required: amount, Available: as.Ledger.cash}
	}
	return as.moveCash(ctx, amount.Neg(), memo)
}

func (as *AccountingSystem) moveCash(ctx context.Context, amount Money, memo string) (Receipt, error) {
	l := as.Ledger
	flow := CashFlow{Timestamp: as.now(), Amount: amount, Memo: memo}
	l.cash = l.cash.Add(amount)
	l.cashFlows = append(l.cashFlows, flow)
	as.log.Infow("cash", "amount", amount, "balance", l.cash)
	return Receipt{CashFlow: &flow, SaveErr: as.save(ctx)}, nil
}

// PriceUpdate is the outcome of refreshing the price of one symbol.
type PriceUpdate struct {
	Symbol   string
	OldPrice Money
	NewPrice Money // equals OldPrice when Err is set
	Err      error
}

// Refresh is the outcome of RefreshPrices.
type Refresh struct {
	Updates   []PriceUpdate
	Snapshot  DailySnapshot
	RecordErr error // daily history could not be recorded
	SaveErr   error
}

// Failed returns the number of symbols whose price could not be refreshed.
func (r Refresh) Failed() int {
	n := 0
	for _, u := range r.Updates {
		if u.Err != nil {
			n++
		}
	}
	return n
}

// RefreshPrices queries the gateway for every held symbol. A failed lookup
// leaves that position unchanged and does not stop the others.
//
// The daily aggregates for today are then recorded and the ledger is saved.
func (as *AccountingSystem) RefreshPrices(ctx context.Context) Refresh {
	l := as.Ledger
	var res Refresh
	for _, p := range l.positions {
		u := PriceUpdate{Symbol: p.Symbol, OldPrice: p.LastPrice, NewPrice: p.LastPrice}
		price, err := lastPrice(ctx, as.gateway, p.Symbol)
		if err != nil {
			u.Err = err
			as.log.Warnw("price refresh failed", "symbol", p.Symbol, "error", err)
		} else {
			u.NewPrice = price
			p.LastPrice = price
			if y, ok := as.dividendYield(ctx, p.Symbol); ok {
				p.DividendYield = decimal.NewNullDecimal(y)
			}
		}
		res.Updates = append(res.Updates, u)
	}
	l.revalue()

	res.Snapshot = l.Daily()
	if as.recorder != nil {
		today := date.Of(as.now())
		if err := as.recorder.RecordDaily(ctx, today, res.Snapshot); err != nil {
			res.RecordErr = err
			as.log.Warnw("daily history not recorded", "date", today, "error", err)
		}
	}
	res.SaveErr = as.save(ctx)
	return res
}

// AddMemo attaches a free note to symbol.
func (as *AccountingSystem) AddMemo(ctx context.Context, symbol, text string) (Receipt, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Receipt{}, err
	}
	if text == "" {
		return Receipt{}, fmt.Errorf("%w: empty memo", ErrInvalidOrder)
	}
	m := Memo{Timestamp: as.now(), Side: Note, Text: text}
	as.Ledger.addMemo(symbol, m)
	return Receipt{Memo: &m, SaveErr: as.save(ctx)}, nil
}

// SetThresholds sets the alert thresholds of symbol. Zero thresholds clear
// them.
func (as *AccountingSystem) SetThresholds(ctx context.Context, symbol string, t Thresholds) (Receipt, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Receipt{}, err
	}
	if t.IsZero() {
		delete(as.Ledger.thresholds, symbol)
	} else {
		as.Ledger.thresholds[symbol] = t
	}
	return Receipt{SaveErr: as.save(ctx)}, nil
}

// ClearThresholds removes the alert thresholds of symbol.
func (as *AccountingSystem) ClearThresholds(ctx context.Context, symbol string) (Receipt, error) {
	return as.SetThresholds(ctx, symbol, Thresholds{})
}

// dividendYield is best effort: it never fails.
func (as *AccountingSystem) dividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if as.gateway == nil {
		return decimal.Zero, false
	}
	return as.gateway.DividendYield(ctx, symbol)
}

// save stores the ledger, logging any failure. The returned error is for
// reporting only.
func (as *AccountingSystem) save(ctx context.Context) error {
	if as.persister == nil {
		return nil
	}
	if err := as.persister.Save(ctx, as.Ledger); err != nil {
		as.log.Warnw("ledger not saved everywhere", "error", err)
		return err
	}
	return nil
}

// validateOrder checks the common preconditions of a trade and returns the
// normalized symbol and the unit price rounded to cents.
func validateOrder(symbol string, quantity Quantity, unitPrice Money) (string, Money, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return "", Money{}, err
	}
	if !quantity.IsPositive() {
		return "", Money{}, fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, quantity)
	}
	unitPrice = unitPrice.Round()
	if !unitPrice.IsPositive() {
		return "", Money{}, fmt.Errorf("%w: unit price must be positive, got %s", ErrInvalidOrder, unitPrice)
	}
	return symbol, unitPrice, nil
}
