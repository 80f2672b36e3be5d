package stockbook

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade, or the kind of a memo.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
	Note Side = "note" // free memo, not attached to a trade
)

// String returns the side as stored.
func (s Side) String() string { return string(s) }

// ParseSide parses a trade side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	case Note:
		return Note, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

var symbolRE = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]*$`)

// NormalizeSymbol returns the canonical (trimmed, upper-cased) form of a
// ticker symbol, or an error if it is not a plausible ticker.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolRE.MatchString(sym) {
		return "", fmt.Errorf("%w: invalid symbol %q", ErrInvalidOrder, s)
	}
	return sym, nil
}

// Transaction is an executed trade. Transactions are never mutated once
// appended to the ledger.
type Transaction struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   Quantity  `json:"quantity"`
	UnitPrice  Money     `json:"unit_price"`
	Gross      Money     `json:"gross_amount"` // Quantity * UnitPrice
	Commission Money     `json:"commission"`
	Net        Money     `json:"net_amount"` // cash leaving (buy) or entering (sell) the account
}

// newTransaction computes the amounts of a trade. The commission is rounded
// to cents so that the cash balance stays exact.
func newTransaction(on time.Time, symbol string, side Side, quantity Quantity, unitPrice Money, rate decimal.Decimal) Transaction {
	gross := unitPrice.Mul(quantity)
	commission := gross.MulRate(rate).Round()
	net := gross.Add(commission)
	if side == Sell {
		net = gross.Sub(commission)
	}
	return Transaction{
		Timestamp:  on,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Gross:      gross,
		Commission: commission,
		Net:        net,
	}
}

// RealizedTrade is the profit realized by a single sell.
type RealizedTrade struct {
	Timestamp  time.Time       `json:"timestamp"`
	Symbol     string          `json:"symbol"`
	Quantity   Quantity        `json:"quantity"`
	BuyPrice   Money           `json:"buy_price"` // cost basis just before the sell
	SellPrice  Money           `json:"sell_price"`
	Profit     Money           `json:"realized_profit"` // (SellPrice-BuyPrice)*Quantity - Commission
	Pct        decimal.Decimal `json:"realized_pct"`    // (SellPrice-BuyPrice)/BuyPrice*100, commission excluded
	Commission Money           `json:"commission"`
}

func newRealizedTrade(tx Transaction, buyPrice Money) RealizedTrade {
	return RealizedTrade{
		Timestamp:  tx.Timestamp,
		Symbol:     tx.Symbol,
		Quantity:   tx.Quantity,
		BuyPrice:   buyPrice,
		SellPrice:  tx.UnitPrice,
		Profit:     tx.UnitPrice.Sub(buyPrice).Mul(tx.Quantity).Sub(tx.Commission).Round(),
		Pct:        percentChange(buyPrice.Decimal(), tx.UnitPrice.Decimal()),
		Commission: tx.Commission,
	}
}

// Memo is a free-text note attached to a symbol.
type Memo struct {
	Timestamp time.Time `json:"timestamp"`
	Side      Side      `json:"side"`
	Text      string    `json:"text"`
}

// CashFlow is a deposit (positive amount) or a withdrawal (negative amount).
type CashFlow struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    Money     `json:"amount"`
	Memo      string    `json:"memo,omitempty"`
}

// Thresholds are the per-symbol alert levels, all expressed in percent of
// the cost basis. A zero level is not set.
type Thresholds struct {
	TargetReturn decimal.Decimal
	StopLoss     decimal.Decimal // positive number, triggers at -StopLoss
	TakeProfit   decimal.Decimal
}

// IsZero reports whether no level is set.
func (t Thresholds) IsZero() bool {
	return t.TargetReturn.IsZero() && t.StopLoss.IsZero() && t.TakeProfit.IsZero()
}

// AlertKind names the threshold an alert was raised for.
type AlertKind string

const (
	TargetReached AlertKind = "target"
	StopLossHit   AlertKind = "stop"
	TakeProfitHit AlertKind = "take"
)

// Alert reports a position whose unrealized return crossed a threshold.
type Alert struct {
	Symbol string
	Kind   AlertKind
	Level  decimal.Decimal
	Pct    decimal.Decimal
}

// check returns the alerts raised by a return of pct percent.
func (t Thresholds) check(symbol string, pct decimal.Decimal) []Alert {
	var alerts []Alert
	if !t.TakeProfit.IsZero() && pct.GreaterThanOrEqual(t.TakeProfit) {
		alerts = append(alerts, Alert{Symbol: symbol, Kind: TakeProfitHit, Level: t.TakeProfit, Pct: pct})
	}
	if !t.StopLoss.IsZero() && pct.LessThanOrEqual(t.StopLoss.Abs().Neg()) {
		alerts = append(alerts, Alert{Symbol: symbol, Kind: StopLossHit, Level: t.StopLoss, Pct: pct})
	}
	if !t.TargetReturn.IsZero() && pct.GreaterThanOrEqual(t.TargetReturn) {
		alerts = append(alerts, Alert{Symbol: symbol, Kind: TargetReached, Level: t.TargetReturn, Pct: pct})
	}
	return alerts
}
