// Package famfolio is a multi-owner investment ledger: it turns a log of
// buy/sell transactions, possibly jointly funded by several owners in
// several currencies, into per-owner monthly holdings, cost basis, and
// mark-to-market value in a single reporting currency.
//
// The pipeline is a deterministic batch computation over the ordered
// transaction log:
//   - Normalize resolves funding splits into one owner-attributed record
//     per (transaction, owner) pair.
//   - LotLedger replays those records chronologically, consuming lots FIFO
//     on disposals and emitting realized-gain events.
//   - SnapshotPositions materializes cumulative open quantity per
//     (owner, security) for every calendar month in range.
//   - Value marks positions to market with point-in-time prices and
//     exchange rates from pluggable PriceSource/RateSource collaborators.
//   - AggregateRealized and Unrealized roll up profit per owner and period.
//
// Missing market data never aborts a run: affected cells are valued at
// zero and surfaced as structured MissingData warnings.
//
// This package is the foundational logic for the `ffo` command-line tool;
// persistence of market snapshots lives in the marketstore subpackage.
package famfolio
