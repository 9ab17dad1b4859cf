package famfolio

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a monetary amount tied to a currency. Arithmetic is exact
// (decimal-based); formatting and currency metadata come from go-money.
//
// The zero Money has an empty currency that binds to the other operand's
// currency on Add/Sub, so it can be used as an accumulator seed.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from any of the usual numeric types.
func M[T float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: dec(value), cur: currency}
}

// dec is a convenience factory for decimal.Decimal.
func dec[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported numeric type")
	}
}

// ValidateCurrency reports an error when code is not a known ISO 4217
// currency code.
func ValidateCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency code %q", code)
	}
	return nil
}

// Currency returns the money's currency code.
func (m Money) Currency() string { return m.cur }

// Amount returns the exact decimal amount in major units.
func (m Money) Amount() decimal.Decimal { return m.value }

// InexactFloat64 returns the nearest float64. Display only, never feed it
// back into the ledger.
func (m Money) InexactFloat64() float64 { return m.value.InexactFloat64() }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }

// Equal reports whether two amounts have the same value and currency.
func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) && m.cur == n.cur }

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money { return Money{value: m.value.Neg(), cur: m.cur} }

// Add returns m+n. Mixing two non-empty, different currencies panics:
// that is always a programming error in the engine.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: bind(m, n)} }

// Sub returns m-n, with the same currency rule as Add.
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: bind(m, n)} }

// Mul scales the amount by a quantity (e.g. price per share times shares).
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value), cur: m.cur} }

// MulRate scales the amount by an exchange-rate factor into a new currency.
func (m Money) MulRate(rate decimal.Decimal, currency string) Money {
	return Money{value: m.value.Mul(rate), cur: currency}
}

// Div divides the amount by a quantity (e.g. deriving a unit cost).
func (m Money) Div(q Quantity) Money { return Money{value: m.value.Div(q.value), cur: m.cur} }

// bind resolves the currency of a binary operation; the empty currency is
// weak and takes the other side's.
func bind(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch: " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// String renders the amount with its currency's conventional symbol and
// fraction digits, e.g. "NT$1,234" or "$12.50".
func (m Money) String() string {
	c := money.New(0, m.cur).Currency()
	shifted := m.value.Shift(int32(c.Fraction))
	return c.Formatter().Format(shifted.Round(0).IntPart())
}

// MarshalJSON encodes the amount as a plain JSON number.
func (m Money) MarshalJSON() ([]byte, error) { return m.value.MarshalJSON() }
