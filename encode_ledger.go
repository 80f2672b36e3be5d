package stockbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// threshold key suffixes in the target_settings object.
const (
	targetSuffix = "_target"
	stopSuffix   = "_stop"
	takeSuffix   = "_take"
)

// bestWorst is the persisted form of the best and worst realized trades.
type bestWorst struct {
	Best  *RealizedTrade `json:"best"`
	Worst *RealizedTrade `json:"worst"`
}

// MarshalJSON writes the ledger snapshot with a fixed key order.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	stocks := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		stocks = append(stocks, *p)
	}
	settings := make(map[string]decimal.Decimal)
	for sym, t := range l.thresholds {
		settings[sym+targetSuffix] = t.TargetReturn
		settings[sym+stopSuffix] = t.StopLoss
		settings[sym+takeSuffix] = t.TakeProfit
	}

	var w jsonObjectWriter
	w.Append("stocks", stocks)
	w.Append("cash", l.cash.Exact())
	w.Append("transactions", nonNil(l.transactions))
	w.Append("realized_pnl", nonNil(l.realized))
	w.Append("stock_memos", l.memos)
	w.Append("target_settings", settings)
	w.Append("total_commission", l.totalCommission)
	w.Append("best_worst_trades", bestWorst{Best: l.best, Worst: l.worst})
	w.Append("last_updated", l.lastUpdated)
	w.Append("cash_flows", nonNil(l.cashFlows))
	w.Optional("currency", l.currency)
	return w.MarshalJSON()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EncodeLedger writes the canonical, indented form of the ledger snapshot.
func EncodeLedger(w io.Writer, l *Ledger) error {
	raw, err := l.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// MarshalLedger returns the canonical serialized form of the ledger.
func MarshalLedger(l *Ledger) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidateSnapshot checks the shape of a serialized ledger: it must be an
// object with a "stocks" list, a numeric "cash" and a "transactions" list.
// Failures wrap ErrStorageIntegrity.
func ValidateSnapshot(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("%w: not a JSON object: %v", ErrStorageIntegrity, err)
	}
	if top == nil {
		return fmt.Errorf("%w: not a JSON object", ErrStorageIntegrity)
	}
	if !isJSONKind(top["stocks"], '[') {
		return fmt.Errorf("%w: \"stocks\" is missing or not a list", ErrStorageIntegrity)
	}
	if !isJSONNumber(top["cash"]) {
		return fmt.Errorf("%w: \"cash\" is missing or not a number", ErrStorageIntegrity)
	}
	if !isJSONKind(top["transactions"], '[') {
		return fmt.Errorf("%w: \"transactions\" is missing or not a list", ErrStorageIntegrity)
	}
	return nil
}

func isJSONKind(raw json.RawMessage, open byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == open
}

func isJSONNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !strings.ContainsRune("-0123456789", rune(raw[0])) {
		return false
	}
	var n json.Number
	return json.Unmarshal(raw, &n) == nil
}

// ledgerJSON is the decoding form of the snapshot.
type ledgerJSON struct {
	Stocks []struct {
		Symbol        string              `json:"symbol"`
		Quantity      Quantity            `json:"quantity"`
		CostBasis     Money               `json:"cost_basis"`
		LastPrice     Money               `json:"last_price"`
		DividendYield decimal.NullDecimal `json:"dividend_yield"`
	} `json:"stocks"`
	Cash            Money                      `json:"cash"`
	Transactions    []Transaction              `json:"transactions"`
	Realized        []RealizedTrade            `json:"realized_pnl"`
	Memos           map[string][]Memo          `json:"stock_memos"`
	TargetSettings  map[string]decimal.Decimal `json:"target_settings"`
	TotalCommission Money                      `json:"total_commission"`
	BestWorst       bestWorst                  `json:"best_worst_trades"`
	LastUpdated     time.Time                  `json:"last_updated"`
	CashFlows       []CashFlow                 `json:"cash_flows"`
	Currency        string                     `json:"currency"`
}

// DecodeLedger reads a ledger snapshot. The shape is checked with
// ValidateSnapshot first; derived position fields are recomputed.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalLedger(data)
}

// UnmarshalLedger is like DecodeLedger for an in-memory snapshot.
func UnmarshalLedger(data []byte) (*Ledger, error) {
	if err := ValidateSnapshot(data); err != nil {
		return nil, err
	}
	var in ledgerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageIntegrity, err)
	}

	l := NewLedger(in.Currency)
	for _, s := range in.Stocks {
		sym, err := NormalizeSymbol(s.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageIntegrity, err)
		}
		if !s.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: position %s has quantity %s", ErrStorageIntegrity, sym, s.Quantity)
		}
		if !s.CostBasis.IsPositive() {
			return nil, fmt.Errorf("%w: position %s has cost basis %s", ErrStorageIntegrity, sym, s.CostBasis)
		}
		if _, dup := l.Position(sym); dup {
			return nil, fmt.Errorf("%w: position %s is listed twice", ErrStorageIntegrity, sym)
		}
		l.addPosition(Position{
			Symbol:        sym,
			Quantity:      s.Quantity,
			CostBasis:     s.CostBasis,
			LastPrice:     s.LastPrice,
			DividendYield: s.DividendYield,
		})
	}
	if in.Cash.IsNegative() {
		return nil, fmt.Errorf("%w: negative cash %s", ErrStorageIntegrity, in.Cash)
	}
	l.cash = in.Cash
	l.transactions = in.Transactions
	l.realized = in.Realized
	for sym, memos := range in.Memos {
		l.memos[sym] = memos
	}
	for key, v := range in.TargetSettings {
		i := strings.LastIndexByte(key, '_')
		if i <= 0 {
			continue
		}
		sym, suffix := key[:i], key[i:]
		t := l.thresholds[sym]
		switch suffix {
		case targetSuffix:
			t.TargetReturn = v
		case stopSuffix:
			t.StopLoss = v
		case takeSuffix:
			t.TakeProfit = v
		default:
			continue
		}
		l.thresholds[sym] = t
	}
	for sym, t := range l.thresholds {
		if t.IsZero() {
			delete(l.thresholds, sym)
		}
	}
	l.totalCommission = in.TotalCommission
	l.best, l.worst = in.BestWorst.Best, in.BestWorst.Worst
	if l.best == nil && len(l.realized) > 0 {
		// older snapshots did not keep the best and worst trades.
		realized := l.realized
		l.realized = nil
		for _, r := range realized {
			l.recordRealized(r)
		}
	}
	l.cashFlows = in.CashFlows
	l.lastUpdated = in.LastUpdated
	return l, nil
}
