package stockbook

import (
	"github.com/shopspring/decimal"
)

// DailySnapshot holds the aggregates of the ledger at the end of a day.
type DailySnapshot struct {
	TotalInvestment Money           `json:"total_investment"`
	TotalValue      Money           `json:"total_value"`
	TotalProfit     Money           `json:"total_profit"`
	TotalReturnRate decimal.Decimal `json:"total_return_rate"`
	TotalAssets     Money           `json:"total_assets"`
	Cash            Money           `json:"cash"`
	StockCount      int             `json:"stock_count"`
}

// Daily returns the current aggregates of the ledger.
func (l *Ledger) Daily() DailySnapshot {
	t := l.Totals()
	return DailySnapshot{
		TotalInvestment: t.Invested,
		TotalValue:      t.MarketValue,
		TotalProfit:     t.Profit,
		TotalReturnRate: t.ReturnRate,
		TotalAssets:     t.Assets,
		Cash:            t.Cash,
		StockCount:      t.Count,
	}
}
