package famfolio

import (
	"context"
	"fmt"
	"slices"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

// PriceSource supplies a security's reference price for a month, in the
// security's native currency. ok is false when no price is known; a
// non-nil error means the lookup itself failed (timeout, transport) and is
// treated as missing data with a recorded cause.
type PriceSource interface {
	MonthlyPrice(ctx context.Context, security string, m date.Month) (price Money, ok bool, err error)
}

// Rate is a currency conversion factor. Fallback is true when the source
// substituted a configured default because no market data existed: the
// engine surfaces that, it never hides it.
type Rate struct {
	Value    decimal.Decimal
	Fallback bool
}

// RateSource supplies the base→quote conversion factor for a month.
type RateSource interface {
	MonthlyRate(ctx context.Context, base, quote string, m date.Month) (rate Rate, ok bool, err error)
}

// MissingKind says which lookup came up empty.
type MissingKind int

const (
	MissingPrice MissingKind = iota
	MissingRate
)

func (k MissingKind) String() string {
	if k == MissingPrice {
		return "price"
	}
	return "rate"
}

// MissingData is a structured warning: a price or rate the valuation
// needed was unavailable (or only available as a fallback) for a month.
// The affected cells are valued at zero; the run is never aborted and no
// number is ever fabricated in place of real data.
type MissingData struct {
	Kind     MissingKind
	Entity   string // security ticker, or "BASE/QUOTE" currency pair
	Month    date.Month
	Fallback bool  // a configured fallback value was used instead
	Cause    error // underlying lookup failure, if any
}

func (w MissingData) String() string {
	s := fmt.Sprintf("missing %s for %s in %s", w.Kind, w.Entity, w.Month)
	if w.Fallback {
		s = fmt.Sprintf("fallback %s used for %s in %s", w.Kind, w.Entity, w.Month)
	}
	if w.Cause != nil {
		s += fmt.Sprintf(" (%v)", w.Cause)
	}
	return s
}

// ValuationRow is one (owner, security, month) cell valued in the
// reporting currency.
type ValuationRow struct {
	Owner    Owner
	Security string
	Month    date.Month
	Quantity Quantity
	Value    Money // in the reporting currency
}

// ValuationTable is the mark-to-market of a PositionTable in a single
// reporting currency, with per-owner and grand totals per month.
type ValuationTable struct {
	Currency string
	Rows     []ValuationRow
	Missing  []MissingData

	ownerTotals map[Owner]map[date.Month]Money
	grandTotals map[date.Month]Money
	months      []date.Month
	owners      []Owner
}

// Months returns the valued month range, ascending.
func (t *ValuationTable) Months() []date.Month { return t.months }

// Owners returns every owner in the table, sorted.
func (t *ValuationTable) Owners() []Owner { return t.owners }

// OwnerTotal returns one owner's total market value for a month, summed
// over securities, in the reporting currency.
func (t *ValuationTable) OwnerTotal(owner Owner, m date.Month) Money {
	if v, ok := t.ownerTotals[owner][m]; ok {
		return v
	}
	return M(0, t.Currency)
}

// GrandTotal returns the total market value across all owners for a month.
func (t *ValuationTable) GrandTotal(m date.Month) Money {
	if v, ok := t.grandTotals[m]; ok {
		return v
	}
	return M(0, t.Currency)
}

// valuer memoizes price and rate lookups so each (entity, month) pair hits
// the potentially slow external source at most once per run, and records
// each distinct missing pair at most once.
type valuer struct {
	prices    PriceSource
	rates     RateSource
	reporting string

	priceMemo map[string]Money // keyed by security|month; absent from memo until looked up
	priceOK   map[string]bool
	rateMemo  map[string]Rate
	rateOK    map[string]bool
	missing   []MissingData
	reported  map[string]bool
}

func newValuer(prices PriceSource, rates RateSource, reporting string) *valuer {
	return &valuer{
		prices:    prices,
		rates:     rates,
		reporting: reporting,
		priceMemo: make(map[string]Money),
		priceOK:   make(map[string]bool),
		rateMemo:  make(map[string]Rate),
		rateOK:    make(map[string]bool),
		reported:  make(map[string]bool),
	}
}

func (v *valuer) warn(w MissingData) {
	key := fmt.Sprintf("%s|%s|%s|%t", w.Kind, w.Entity, w.Month, w.Fallback)
	if v.reported[key] {
		return
	}
	v.reported[key] = true
	v.missing = append(v.missing, w)
}

func (v *valuer) price(ctx context.Context, security string, m date.Month) (Money, bool) {
	key := security + "|" + m.String()
	if ok, seen := v.priceOK[key]; seen {
		return v.priceMemo[key], ok
	}
	price, ok, err := v.prices.MonthlyPrice(ctx, security, m)
	if err != nil {
		ok = false
	}
	v.priceOK[key] = ok
	v.priceMemo[key] = price
	if !ok {
		v.warn(MissingData{Kind: MissingPrice, Entity: security, Month: m, Cause: err})
	}
	return price, ok
}

func (v *valuer) rate(ctx context.Context, base string, m date.Month) (Rate, bool) {
	// Identical currencies convert at 1 without a lookup.
	if base == v.reporting {
		return Rate{Value: decimal.NewFromInt(1)}, true
	}
	key := base + "|" + m.String()
	if ok, seen := v.rateOK[key]; seen {
		rate := v.rateMemo[key]
		return rate, ok
	}
	rate, ok, err := v.rates.MonthlyRate(ctx, base, v.reporting, m)
	if err != nil {
		ok = false
	}
	v.rateOK[key] = ok
	v.rateMemo[key] = rate
	pair := base + "/" + v.reporting
	if !ok {
		v.warn(MissingData{Kind: MissingRate, Entity: pair, Month: m, Cause: err})
	} else if rate.Fallback {
		v.warn(MissingData{Kind: MissingRate, Entity: pair, Month: m, Fallback: true})
	}
	return rate, ok
}

// convert turns an amount into the reporting currency at the month's rate.
func (v *valuer) convert(ctx context.Context, amount Money, m date.Month) (Money, bool) {
	if amount.Currency() == v.reporting || amount.IsZero() {
		return M(amount.Amount(), v.reporting), true
	}
	rate, ok := v.rate(ctx, amount.Currency(), m)
	if !ok {
		return M(0, v.reporting), false
	}
	return amount.MulRate(rate.Value, v.reporting), true
}

// Value marks a position table to market: every (owner, security, month)
// cell becomes quantity × price × fx in the reporting currency. A missing
// price or rate zeroes only the affected cells and is surfaced in the
// table's Missing list; the computation always completes.
func Value(ctx context.Context, positions *PositionTable, prices PriceSource, rates RateSource, reportingCurrency string) (*ValuationTable, error) {
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return nil, fmt.Errorf("invalid reporting currency: %w", err)
	}
	if positions == nil || len(positions.Months()) == 0 {
		return nil, ErrEmptyLedger
	}

	v := newValuer(prices, rates, reportingCurrency)
	table := &ValuationTable{
		Currency:    reportingCurrency,
		months:      positions.Months(),
		ownerTotals: make(map[Owner]map[date.Month]Money),
		grandTotals: make(map[date.Month]Money),
	}

	ownerSet := make(map[Owner]bool)
	for _, h := range positions.Holders() {
		ownerSet[h.Owner] = true
	}
	for owner := range ownerSet {
		table.owners = append(table.owners, owner)
		table.ownerTotals[owner] = make(map[date.Month]Money)
	}
	slices.Sort(table.owners)

	for _, m := range positions.Months() {
		for _, h := range positions.Holders() {
			quantity := positions.Quantity(h.Owner, h.Security, m)
			value := M(0, reportingCurrency)

			if !quantity.IsZero() {
				if price, ok := v.price(ctx, h.Security, m); ok {
					if converted, ok := v.convert(ctx, price.Mul(quantity), m); ok {
						value = converted
					}
				}
			}

			table.Rows = append(table.Rows, ValuationRow{
				Owner:    h.Owner,
				Security: h.Security,
				Month:    m,
				Quantity: quantity,
				Value:    value,
			})
			table.ownerTotals[h.Owner][m] = table.ownerTotals[h.Owner][m].Add(value)
			table.grandTotals[m] = table.grandTotals[m].Add(value)
		}
	}

	table.Missing = v.missing
	return table, nil
}
