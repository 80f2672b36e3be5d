package renderer

import (
	"fmt"
	"time"

	"github.com/etnz/stockbook"
)

// Holding is the view of the ledger rendered by the holding templates. All
// values are preformatted in the ledger currency.
type Holding struct {
	Currency    string
	LastUpdated string
	Positions   []HoldingRow
	Cash        string
	Invested    string
	MarketValue string
	Profit      string
	Return      string
	Assets      string
	Commission  string
	Alerts      []string
}

// HoldingRow is a single position.
type HoldingRow struct {
	Symbol        string
	Quantity      string
	CostBasis     string
	LastPrice     string
	MarketValue   string
	UnrealizedPnL string
	UnrealizedPct string
	DividendYield string
	Memo          string // latest memo
}

// NewHolding builds the holding view of l.
func NewHolding(l *stockbook.Ledger) *Holding {
	cur := l.Currency()
	t := l.Totals()
	h := &Holding{
		Currency:    cur,
		Cash:        t.Cash.Format(cur),
		Invested:    t.Invested.Format(cur),
		MarketValue: t.MarketValue.Format(cur),
		Profit:      t.Profit.SignedString(),
		Return:      stockbook.Pct(t.ReturnRate).SignedString(),
		Assets:      t.Assets.Format(cur),
		Commission:  l.TotalCommission().Format(cur),
	}
	if !l.LastUpdated().IsZero() {
		h.LastUpdated = l.LastUpdated().Local().Format(time.DateTime)
	}
	for p := range l.Positions() {
		row := HoldingRow{
			Symbol:        p.Symbol,
			Quantity:      p.Quantity.String(),
			CostBasis:     p.CostBasis.Round().Format(cur),
			LastPrice:     p.LastPrice.Format(cur),
			MarketValue:   p.MarketValue().Format(cur),
			UnrealizedPnL: p.UnrealizedPnL.SignedString(),
			UnrealizedPct: stockbook.Pct(p.UnrealizedPct).SignedString(),
			DividendYield: "-",
		}
		if p.DividendYield.Valid {
			row.DividendYield = stockbook.Pct(p.DividendYield.Decimal).String()
		}
		if memos := l.Memos(p.Symbol); len(memos) > 0 {
			row.Memo = memos[len(memos)-1].Text
		}
		h.Positions = append(h.Positions, row)
	}
	for _, a := range l.Alerts() {
		h.Alerts = append(h.Alerts, alertText(a))
	}
	return h
}

func alertText(a stockbook.Alert) string {
	pct, level := stockbook.Pct(a.Pct).SignedString(), stockbook.Pct(a.Level).String()
	switch a.Kind {
	case stockbook.TakeProfitHit:
		return fmt.Sprintf("%s is up %s, take profit at %s", a.Symbol, pct, level)
	case stockbook.StopLossHit:
		return fmt.Sprintf("%s fell to %s, stop loss at -%s", a.Symbol, pct, level)
	default:
		return fmt.Sprintf("%s reached its %s target (%s)", a.Symbol, level, pct)
	}
}

// HoldingMarkdown renders the holding report of l.
func HoldingMarkdown(l *stockbook.Ledger) string { return RenderHolding(NewHolding(l)) }
