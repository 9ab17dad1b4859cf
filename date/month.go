package date

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// MonthFormat is the canonical representation of a Month ("2023-01").
const MonthFormat = "2006-01"

// Month represents a calendar month of a specific year. It is the grain at
// which positions are snapshotted and market data is stored.
type Month struct {
	y int
	m time.Month
}

// MonthOf returns the Month for the given year and month.
func MonthOf(year int, month time.Month) Month {
	// Normalize through a Date so that MonthOf(2023, 13) is 2024-01.
	return New(year, month, 1).Month()
}

// ThisMonth returns the current calendar month.
func ThisMonth() Month { return Today().Month() }

// Year returns the month's year.
func (m Month) Year() int { return m.y }

// Mon returns the month-of-year component.
func (m Month) Mon() time.Month { return m.m }

// First returns the first day of the month.
func (m Month) First() Date { return New(m.y, m.m, 1) }

// Last returns the last day of the month.
func (m Month) Last() Date { return New(m.y, m.m+1, 0) }

// Next returns the following calendar month.
func (m Month) Next() Month { return MonthOf(m.y, m.m+1) }

// Prev returns the preceding calendar month.
func (m Month) Prev() Month { return MonthOf(m.y, m.m-1) }

// Before reports whether m is strictly before x.
func (m Month) Before(x Month) bool { return m.y < x.y || (m.y == x.y && m.m < x.m) }

// After reports whether m is strictly after x.
func (m Month) After(x Month) bool { return x.Before(m) }

// Compare returns -1, 0 or +1 comparing m to x chronologically.
func (m Month) Compare(x Month) int {
	switch {
	case m.Before(x):
		return -1
	case m.After(x):
		return +1
	default:
		return 0
	}
}

// Contains reports whether the day d falls within the month.
func (m Month) Contains(d Date) bool { return d.Month() == m }

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool { return m == Month{} }

// String formats the month in its canonical "2006-01" form.
func (m Month) String() string { return m.First().time().Format(MonthFormat) }

// ParseMonth parses a Month from its canonical "2006-01" form.
func ParseMonth(str string) (Month, error) {
	t, err := time.Parse(MonthFormat, str)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, want format %q: %w", str, MonthFormat, err)
	}
	y, mo, _ := t.Date()
	return Month{y: y, m: mo}, nil
}

// MustParseMonth is like ParseMonth but panics on error.
func MustParseMonth(str string) Month {
	m, err := ParseMonth(str)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Months iterates over every calendar month from 'from' to 'to' inclusive,
// in chronological order. An empty sequence is returned when to < from.
func Months(from, to Month) iter.Seq[Month] {
	return func(yield func(Month) bool) {
		for m := from; !m.After(to); m = m.Next() {
			if !yield(m) {
				return
			}
		}
	}
}

// MarshalJSON encodes the month as a canonical JSON string.
func (m Month) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON decodes a month from a JSON string.
func (m *Month) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := ParseMonth(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
