package stockbook

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// cents is the number of fractional digits money is rounded to.
const cents = 2

// Money represents a monetary value in the ledger's currency.
type Money struct {
	value decimal.Decimal
	exact bool // true to persist in full digits
}

// M creates a Money from any numeric value.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// ParseMoney parses a decimal string such as "123.45".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d}, nil
}

// String returns the money value with thousands separators and no currency symbol.
func (m Money) String() string { return m.Format("") }

// Format returns the money value formatted for the given ISO currency code.
// An empty or unknown code formats with two digits and no symbol.
func (m Money) Format(currency string) string {
	f := money.NewFormatter(cents, ".", ",", "", "1")
	if cur := money.GetCurrency(currency); cur != nil {
		f = cur.Formatter()
	}
	frac := int32(f.Fraction)
	return f.Format(m.value.Round(frac).Shift(frac).IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Mul(q Quantity) Money            { return Money{value: m.value.Mul(q.decimal())} }
func (m Money) Div(q Quantity) Money            { return Money{value: m.value.Div(q.decimal())} }

// MulRate multiplies by a raw rate (e.g. a commission rate of 0.0015).
func (m Money) MulRate(rate decimal.Decimal) Money { return Money{value: m.value.Mul(rate)} }

// Round returns the value rounded to cents, half away from zero.
func (m Money) Round() Money { return Money{value: m.value.Round(cents)} }

// Exact returns a copy of money that will be persisted with all the digits.
func (m Money) Exact() Money {
	m.exact = true
	return m
}

// MarshalJSON writes the money as a plain JSON number, rounded to cents
// unless the value is exact.
func (m Money) MarshalJSON() ([]byte, error) {
	v := m.value
	if !m.exact {
		v = v.Round(cents)
	}
	return []byte(v.String()), nil
}

// UnmarshalJSON reads a JSON number (or a quoted decimal). Values read back
// are exact so that they are persisted as they were read.
func (m *Money) UnmarshalJSON(b []byte) error {
	if err := m.value.UnmarshalJSON(b); err != nil {
		return err
	}
	m.exact = true
	return nil
}
