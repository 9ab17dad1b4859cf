package famfolio

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/linsean/famfolio/date"
)

// Period selects how realized gains are bucketed.
type Period int

const (
	// Yearly groups realized gains by calendar year.
	Yearly Period = iota
	// Monthly groups realized gains by calendar month.
	Monthly
)

func (p Period) String() string {
	if p == Monthly {
		return "monthly"
	}
	return "yearly"
}

// ParsePeriod parses "yearly"/"year" or "monthly"/"month".
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "yearly", "year":
		return Yearly, nil
	case "monthly", "month":
		return Monthly, nil
	default:
		return Yearly, fmt.Errorf("unknown period %q", s)
	}
}

// label buckets a sell date per the period: "2023" or "2023-03".
func (p Period) label(d date.Date) string {
	if p == Monthly {
		return d.Month().String()
	}
	return strconv.Itoa(d.Year())
}

// RealizedRow is one owner's realized gain for one period bucket, in the
// reporting currency.
type RealizedRow struct {
	Owner     Owner
	Period    string // "2023" or "2023-03" depending on the grouping
	CostBasis Money
	Proceeds  Money
	Gain      Money
}

// RealizedReport is the period roll-up of realized-gain events. Events
// whose sell-date rate was unavailable contribute zero and appear in
// Missing.
type RealizedReport struct {
	Currency string
	Period   Period
	Rows     []RealizedRow
	Missing  []MissingData
}

// AggregateRealized converts each realized-gain event to the reporting
// currency at the rate of the event's own sell date (not the valuation
// month being reported) and sums by (owner, period).
func AggregateRealized(ctx context.Context, gains []RealizedGain, rates RateSource, reportingCurrency string, period Period) (*RealizedReport, error) {
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return nil, fmt.Errorf("invalid reporting currency: %w", err)
	}

	v := newValuer(nil, rates, reportingCurrency)

	type bucket struct {
		owner  Owner
		period string
	}
	sums := make(map[bucket]*RealizedRow)

	for _, g := range gains {
		cost, okCost := v.convert(ctx, g.CostBasis, g.SellDate.Month())
		proceeds, okProceeds := v.convert(ctx, g.Proceeds, g.SellDate.Month())
		if !okCost || !okProceeds {
			// The warning is already recorded; this event contributes zero.
			continue
		}

		b := bucket{owner: g.Owner, period: period.label(g.SellDate)}
		row, ok := sums[b]
		if !ok {
			row = &RealizedRow{
				Owner:     g.Owner,
				Period:    b.period,
				CostBasis: M(0, reportingCurrency),
				Proceeds:  M(0, reportingCurrency),
			}
			sums[b] = row
		}
		row.CostBasis = row.CostBasis.Add(cost)
		row.Proceeds = row.Proceeds.Add(proceeds)
	}

	report := &RealizedReport{Currency: reportingCurrency, Period: period, Missing: v.missing}
	for _, row := range sums {
		row.Gain = row.Proceeds.Sub(row.CostBasis)
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Owner != report.Rows[j].Owner {
			return report.Rows[i].Owner < report.Rows[j].Owner
		}
		return report.Rows[i].Period < report.Rows[j].Period
	})
	return report, nil
}

// UnrealizedRow is the paper gain standing on one owner's open position in
// one security: market value at the as-of month minus the FIFO cost basis
// still tied up in the open lots.
type UnrealizedRow struct {
	Owner     Owner
	Security  string
	Quantity  Quantity
	CostBasis Money // reporting currency, converted at the as-of month
	Value     Money // reporting currency
	Gain      Money
}

// UnrealizedReport is the paper P&L on all open lots at a given month.
type UnrealizedReport struct {
	Currency string
	AsOf     date.Month
	Rows     []UnrealizedRow
	Missing  []MissingData
}

// Unrealized computes the paper gain on every open lot in the ledger as of
// a month. It reads the same FIFO-consumed lots that produced the realized
// figures, not a separately recomputed average cost, so realized plus
// unrealized stays consistent with the ledger.
func Unrealized(ctx context.Context, ledger *LotLedger, prices PriceSource, rates RateSource, reportingCurrency string, asOf date.Month) (*UnrealizedReport, error) {
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return nil, fmt.Errorf("invalid reporting currency: %w", err)
	}

	v := newValuer(prices, rates, reportingCurrency)
	report := &UnrealizedReport{Currency: reportingCurrency, AsOf: asOf}

	for _, h := range ledger.Holders() {
		quantity := ledger.OpenQuantity(h.Owner, h.Security)
		if quantity.IsZero() {
			continue
		}

		// Lots of one security may have been bought in different
		// currencies, so each cost basis converts on its own before
		// the sum.
		cost := M(0, reportingCurrency)
		for _, lot := range ledger.OpenLots(h.Owner, h.Security) {
			if converted, ok := v.convert(ctx, lot.CostBasis(), asOf); ok {
				cost = cost.Add(converted)
			}
		}

		value := M(0, reportingCurrency)
		if price, ok := v.price(ctx, h.Security, asOf); ok {
			if converted, ok := v.convert(ctx, price.Mul(quantity), asOf); ok {
				value = converted
			}
		}

		report.Rows = append(report.Rows, UnrealizedRow{
			Owner:     h.Owner,
			Security:  h.Security,
			Quantity:  quantity,
			CostBasis: cost,
			Value:     value,
			Gain:      value.Sub(cost),
		})
	}

	report.Missing = v.missing
	return report, nil
}
