package famfolio

import (
	"context"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

// fakePrices serves canned monthly prices, keyed by "SECURITY|2006-01".
type fakePrices map[string]Money

func (f fakePrices) MonthlyPrice(_ context.Context, security string, m date.Month) (Money, bool, error) {
	price, ok := f[security+"|"+m.String()]
	return price, ok, nil
}

// fakeRates serves canned conversion factors, keyed by "BASE|QUOTE|2006-01".
type fakeRates map[string]float64

func (f fakeRates) MonthlyRate(_ context.Context, base, quote string, m date.Month) (Rate, bool, error) {
	rate, ok := f[base+"|"+quote+"|"+m.String()]
	if !ok {
		return Rate{}, false, nil
	}
	return Rate{Value: decimal.NewFromFloat(rate)}, true, nil
}

// fallbackRates always answers with a fixed factor flagged as a fallback,
// the way a store that ran out of market data would.
type fallbackRates float64

func (f fallbackRates) MonthlyRate(_ context.Context, _, _ string, _ date.Month) (Rate, bool, error) {
	return Rate{Value: decimal.NewFromFloat(float64(f)), Fallback: true}, true, nil
}

// failingRates fails the test when any rate lookup happens at all. Used to
// prove that same-currency valuations skip the fx lookup.
type failingRates struct {
	fail func(format string, args ...any)
}

func (f failingRates) MonthlyRate(_ context.Context, base, quote string, m date.Month) (Rate, bool, error) {
	f.fail("unexpected rate lookup %s->%s for %s", base, quote, m)
	return Rate{}, false, nil
}

// buy builds a single-owner buy record for tests.
func buy(owner Owner, day, security string, qty, price, fee, tax float64, currency string) Record {
	return Record{
		Owner:    owner,
		Date:     date.MustParse(day),
		Security: security,
		Quantity: Q(qty),
		Price:    M(price, currency),
		Fee:      M(fee, currency),
		Tax:      M(tax, currency),
	}
}

// sell builds a single-owner sell record for tests; qty is positive.
func sell(owner Owner, day, security string, qty, price, fee, tax float64, currency string) Record {
	r := buy(owner, day, security, qty, price, fee, tax, currency)
	r.Quantity = r.Quantity.Neg()
	return r
}
