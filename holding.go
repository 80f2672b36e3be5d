package stockbook

import (
	"github.com/shopspring/decimal"
)

// Position is the holding of a single symbol.
//
// Quantity is always positive: a position sold down to zero is removed from
// the ledger.
type Position struct {
	Symbol        string
	Quantity      Quantity
	CostBasis     Money // weighted average price per share, full precision
	LastPrice     Money
	DividendYield decimal.NullDecimal

	// derived from the fields above by revalue.
	UnrealizedPnL Money
	UnrealizedPct decimal.Decimal
}

// revalue recomputes the derived fields.
func (p *Position) revalue() {
	p.UnrealizedPnL = p.LastPrice.Sub(p.CostBasis).Mul(p.Quantity).Round()
	p.UnrealizedPct = percentChange(p.CostBasis.Decimal(), p.LastPrice.Decimal())
}

// Invested returns the cost of the position (Quantity * CostBasis).
func (p Position) Invested() Money { return p.CostBasis.Mul(p.Quantity).Round() }

// MarketValue returns the value of the position at its last price.
func (p Position) MarketValue() Money { return p.LastPrice.Mul(p.Quantity).Round() }

// merge adds quantity shares bought at unitPrice to the position, re-averaging
// the cost basis.
func (p *Position) merge(quantity Quantity, unitPrice Money) {
	total := p.Quantity + quantity
	cost := p.CostBasis.Mul(p.Quantity).Add(unitPrice.Mul(quantity))
	p.CostBasis = cost.Div(total).Exact()
	p.Quantity = total
}

// MarshalJSON writes the position in the persisted format.
func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", p.Symbol)
	w.Append("quantity", p.Quantity)
	w.Append("cost_basis", p.CostBasis.Exact())
	w.Append("last_price", p.LastPrice.Exact())
	w.Append("unrealized_pnl", p.UnrealizedPnL)
	w.Append("unrealized_pnl_pct", p.UnrealizedPct)
	if p.DividendYield.Valid {
		w.Append("dividend_yield", p.DividendYield.Decimal)
	}
	return w.MarshalJSON()
}
