// Package renderer turns the engine's reports into markdown, ready for
// the terminal or a plain pager.
package renderer

import (
	"fmt"
	"strings"

	"github.com/linsean/famfolio"
)

// PositionsMarkdown renders the monthly position table, one row per
// (owner, security) pair per month.
func PositionsMarkdown(t *famfolio.PositionTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Positions\n\n")
	fmt.Fprintln(&b, "| Month | Owner | Security | Quantity |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|")
	for _, row := range t.Rows() {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Month, row.Owner, row.Security, row.Quantity)
	}
	return b.String()
}

// ValuationMarkdown renders the mark-to-market table with per-owner and
// grand totals per month, followed by any missing-data warnings.
func ValuationMarkdown(t *famfolio.ValuationTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Valuation (%s)\n\n", t.Currency)
	fmt.Fprintln(&b, "| Month | Owner | Security | Quantity | Value |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|")
	for _, row := range t.Rows {
		if row.Quantity.IsZero() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", row.Month, row.Owner, row.Security, row.Quantity, row.Value)
	}

	fmt.Fprintf(&b, "\n## Totals\n\n")
	fmt.Fprint(&b, "| Month |")
	for _, owner := range t.Owners() {
		fmt.Fprintf(&b, " %s |", owner)
	}
	fmt.Fprintln(&b, " Total |")
	fmt.Fprint(&b, "|:---|")
	for range t.Owners() {
		fmt.Fprint(&b, "---:|")
	}
	fmt.Fprintln(&b, "---:|")
	for _, m := range t.Months() {
		fmt.Fprintf(&b, "| %s |", m)
		for _, owner := range t.Owners() {
			fmt.Fprintf(&b, " %s |", t.OwnerTotal(owner, m))
		}
		fmt.Fprintf(&b, " %s |\n", t.GrandTotal(m))
	}

	writeWarnings(&b, t.Missing)
	return b.String()
}

// RealizedMarkdown renders realized gains grouped by owner and period.
func RealizedMarkdown(r *famfolio.RealizedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Realized gains (%s, %s)\n\n", r.Currency, r.Period)
	fmt.Fprintln(&b, "| Owner | Period | Cost basis | Proceeds | Gain |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", row.Owner, row.Period, row.CostBasis, row.Proceeds, row.Gain)
	}
	writeWarnings(&b, r.Missing)
	return b.String()
}

// UnrealizedMarkdown renders the paper gain on open positions.
func UnrealizedMarkdown(r *famfolio.UnrealizedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Unrealized gains (%s, as of %s)\n\n", r.Currency, r.AsOf)
	fmt.Fprintln(&b, "| Owner | Security | Quantity | Cost basis | Value | Gain |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			row.Owner, row.Security, row.Quantity, row.CostBasis, row.Value, row.Gain)
	}
	writeWarnings(&b, r.Missing)
	return b.String()
}

// writeWarnings appends the missing-data section when there is anything
// to report. Zeroed cells must never pass silently.
func writeWarnings(b *strings.Builder, missing []famfolio.MissingData) {
	if len(missing) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Warnings\n\n")
	for _, w := range missing {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
