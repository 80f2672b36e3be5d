package stockbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/etnz/stockbook/date"
)

// Export file names written by ExportCSV.
const (
	PositionsCSV    = "positions.csv"
	TransactionsCSV = "transactions.csv"
	RealizedCSV     = "realized.csv"
	HistoryCSV      = "history.csv"
)

// ExportCSV writes the ledger and its daily history as spreadsheet files in
// dir. It never modifies the ledger.
func ExportCSV(dir string, l *Ledger, history *date.History[DailySnapshot]) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{PositionsCSV, func(w io.Writer) error { return WritePositionsCSV(w, l) }},
		{TransactionsCSV, func(w io.Writer) error { return WriteTransactionsCSV(w, l) }},
		{RealizedCSV, func(w io.Writer) error { return WriteRealizedCSV(w, l) }},
		{HistoryCSV, func(w io.Writer) error { return WriteHistoryCSV(w, history) }},
	}
	var errs []error
	for _, x := range writers {
		if err := exportFile(filepath.Join(dir, x.name), x.write); err != nil {
			errs = append(errs, fmt.Errorf("export %s: %w", x.name, err))
		}
	}
	return errors.Join(errs...)
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePositionsCSV writes one row per position.
func WritePositionsCSV(w io.Writer, l *Ledger) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"symbol", "quantity", "cost_basis", "last_price", "market_value", "unrealized_pnl", "unrealized_pnl_pct", "dividend_yield"})
	for p := range l.Positions() {
		yield := ""
		if p.DividendYield.Valid {
			yield = p.DividendYield.Decimal.String()
		}
		cw.Write([]string{
			p.Symbol,
			p.Quantity.String(),
			p.CostBasis.Decimal().StringFixed(4),
			p.LastPrice.Decimal().String(),
			p.MarketValue().Decimal().StringFixed(cents),
			p.UnrealizedPnL.Decimal().StringFixed(cents),
			p.UnrealizedPct.StringFixed(cents),
			yield,
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsCSV writes one row per trade, oldest first.
func WriteTransactionsCSV(w io.Writer, l *Ledger) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"timestamp", "symbol", "side", "quantity", "unit_price", "gross_amount", "commission", "net_amount"})
	for tx := range l.Transactions() {
		cw.Write([]string{
			tx.Timestamp.Format(time.RFC3339),
			tx.Symbol,
			tx.Side.String(),
			tx.Quantity.String(),
			tx.UnitPrice.Decimal().String(),
			tx.Gross.Decimal().StringFixed(cents),
			tx.Commission.Decimal().StringFixed(cents),
			tx.Net.Decimal().StringFixed(cents),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteRealizedCSV writes one row per realized trade, oldest first.
func WriteRealizedCSV(w io.Writer, l *Ledger) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"timestamp", "symbol", "quantity", "buy_price", "sell_price", "realized_profit", "realized_pct", "commission"})
	for r := range l.Realized() {
		cw.Write([]string{
			r.Timestamp.Format(time.RFC3339),
			r.Symbol,
			r.Quantity.String(),
			r.BuyPrice.Decimal().StringFixed(4),
			r.SellPrice.Decimal().String(),
			r.Profit.Decimal().StringFixed(cents),
			r.Pct.StringFixed(cents),
			r.Commission.Decimal().StringFixed(cents),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistoryCSV writes one row per recorded day. A nil history writes the
// header only.
func WriteHistoryCSV(w io.Writer, h *date.History[DailySnapshot]) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "total_investment", "total_value", "total_profit", "total_return_rate", "total_assets", "cash", "stock_count"})
	if h != nil {
		for on, s := range h.Values() {
			cw.Write([]string{
				on.String(),
				s.TotalInvestment.Decimal().StringFixed(cents),
				s.TotalValue.Decimal().StringFixed(cents),
				s.TotalProfit.Decimal().StringFixed(cents),
				s.TotalReturnRate.StringFixed(cents),
				s.TotalAssets.Decimal().StringFixed(cents),
				s.Cash.Decimal().StringFixed(cents),
				strconv.Itoa(s.StockCount),
			})
		}
	}
	cw.Flush()
	return cw.Error()
}
