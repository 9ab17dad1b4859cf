package famfolio

import "github.com/shopspring/decimal"

// Quantity is an exact number of shares. It is kept separate from Money so
// that shares and amounts cannot be mixed up in the engine's arithmetic.
type Quantity struct {
	value decimal.Decimal
}

// Q builds a Quantity from any of the usual numeric types.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: dec(value)}
}

// Decimal returns the exact underlying value.
func (q Quantity) Decimal() decimal.Decimal { return q.value }

func (q Quantity) IsZero() bool     { return q.value.IsZero() }
func (q Quantity) IsNegative() bool { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool { return q.value.IsPositive() }

func (q Quantity) Equal(p Quantity) bool       { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool    { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool { return q.value.GreaterThan(p.value) }

func (q Quantity) Add(p Quantity) Quantity { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) Div(p Quantity) Quantity { return Quantity{value: q.value.Div(p.value)} }
func (q Quantity) Neg() Quantity           { return Quantity{value: q.value.Neg()} }
func (q Quantity) Abs() Quantity           { return Quantity{value: q.value.Abs()} }

// Min returns the smaller of q and p.
func (q Quantity) Min(p Quantity) Quantity {
	if q.LessThan(p) {
		return q
	}
	return p
}

func (q Quantity) String() string { return q.value.String() }

// MarshalJSON encodes the quantity as a plain JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) { return q.value.MarshalJSON() }

// UnmarshalJSON decodes a quantity from a JSON number.
func (q *Quantity) UnmarshalJSON(b []byte) error { return q.value.UnmarshalJSON(b) }
