package stockbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a display value for a percentage (e.g. 5 for 5%).
type Percent float64

// Pct converts a decimal percentage into a Percent.
func Pct(d decimal.Decimal) Percent { return Percent(d.InexactFloat64()) }

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}

// percentChange returns (to-from)/from*100 rounded to two decimals, or zero
// when from is zero.
func percentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100)).Round(cents)
}
