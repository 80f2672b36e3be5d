package stockbook

import (
	"context"

	"github.com/etnz/stockbook/date"
	"github.com/shopspring/decimal"
)

// Gateway provides live market data.
//
// LastPrice returns the most recent trade price of a symbol; any failure,
// including a non-positive price, is reported as an error. DividendYield is
// best effort and never blocks an operation.
type Gateway interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// Persister durably stores the ledger after each mutation.
type Persister interface {
	Save(ctx context.Context, l *Ledger) error
}

// DailyRecorder records the daily aggregates of the ledger.
type DailyRecorder interface {
	RecordDaily(ctx context.Context, on date.Date, s DailySnapshot) error
}

// priceDigits is the precision kept for prices received from a gateway.
const priceDigits = 4

// lastPrice queries the gateway and maps every failure to a
// PriceUnavailableError.
func lastPrice(ctx context.Context, g Gateway, symbol string) (Money, error) {
	if g == nil {
		return Money{}, &PriceUnavailableError{Symbol: symbol, Err: ErrNoGateway}
	}
	price, err := g.LastPrice(ctx, symbol)
	if err != nil {
		return Money{}, &PriceUnavailableError{Symbol: symbol, Err: err}
	}
	if !price.IsPositive() {
		return Money{}, &PriceUnavailableError{Symbol: symbol, Err: ErrNonPositivePrice}
	}
	return M(price.Round(priceDigits)), nil
}
