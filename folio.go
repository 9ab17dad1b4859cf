package famfolio

import (
	"context"
	"fmt"

	"github.com/linsean/famfolio/date"
)

// Folio ties a transaction log to its market-data collaborators and a
// reporting currency. It is the single entry point the CLI goes through,
// so every report is derived from the same normalized record stream and
// the same FIFO replay.
type Folio struct {
	ReportingCurrency string
	Prices            PriceSource
	Rates             RateSource

	records []Record
	ledger  *LotLedger
}

// FolioOptions tunes how the transaction log is interpreted.
type FolioOptions struct {
	// Policy decides whether an invalid transaction fails the whole log or
	// is skipped and reported.
	Policy ValidationPolicy
	// TolerateOversell books disposals exceeding the open quantity as
	// zero-cost shorts instead of failing the replay.
	TolerateOversell bool
}

// NewFolio normalizes the transaction log and replays it through a fresh
// lot ledger. The returned skipped list is non-empty only under the
// SkipAndReport policy.
func NewFolio(txs []Transaction, prices PriceSource, rates RateSource, reportingCurrency string, opts FolioOptions) (*Folio, []*ValidationError, error) {
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return nil, nil, fmt.Errorf("invalid reporting currency: %w", err)
	}

	records, skipped, err := Normalize(txs, opts.Policy)
	if err != nil {
		return nil, nil, err
	}

	ledger := NewLotLedger(opts.TolerateOversell)
	if err := ledger.Replay(records); err != nil {
		return nil, skipped, err
	}

	return &Folio{
		ReportingCurrency: reportingCurrency,
		Prices:            prices,
		Rates:             rates,
		records:           records,
		ledger:            ledger,
	}, skipped, nil
}

// Records returns the normalized owner-attributed records, sorted
// chronologically.
func (f *Folio) Records() []Record { return f.records }

// Ledger returns the replayed lot ledger.
func (f *Folio) Ledger() *LotLedger { return f.ledger }

// Positions materializes monthly positions from the first transaction
// through the given month.
func (f *Folio) Positions(through date.Month) (*PositionTable, error) {
	return SnapshotPositions(f.records, through)
}

// Valuation marks monthly positions to market in the reporting currency.
func (f *Folio) Valuation(ctx context.Context, through date.Month) (*ValuationTable, error) {
	positions, err := f.Positions(through)
	if err != nil {
		return nil, err
	}
	return Value(ctx, positions, f.Prices, f.Rates, f.ReportingCurrency)
}

// Realized rolls up realized gains by (owner, period) in the reporting
// currency, converting each event at its own sell date.
func (f *Folio) Realized(ctx context.Context, period Period) (*RealizedReport, error) {
	return AggregateRealized(ctx, f.ledger.Gains(), f.Rates, f.ReportingCurrency, period)
}

// Unrealized computes the paper gain standing on the open lots as of a
// month, using the same FIFO cost basis as the realized figures.
func (f *Folio) Unrealized(ctx context.Context, asOf date.Month) (*UnrealizedReport, error) {
	return Unrealized(ctx, f.ledger, f.Prices, f.Rates, f.ReportingCurrency, asOf)
}

// Securities returns every security ticker in the log with its
// transaction currency. Used to prefetch market data before valuation.
func (f *Folio) Securities() map[string]string {
	out := make(map[string]string)
	for _, r := range f.records {
		out[r.Security] = r.Currency()
	}
	return out
}
