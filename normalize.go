package famfolio

import (
	"errors"
	"fmt"
)

// ValidationPolicy decides what Normalize does with an invalid transaction.
type ValidationPolicy int

const (
	// RejectBatch fails the whole batch on the first invalid transaction.
	RejectBatch ValidationPolicy = iota
	// SkipAndReport drops invalid transactions and reports them, keeping
	// the valid remainder.
	SkipAndReport
)

// ValidationError describes a malformed or incomplete transaction. It
// names the offending field and the transaction's natural key so the
// source row can be found and fixed. The input is never silently coerced.
type ValidationError struct {
	Field string // the missing or invalid field
	Key   string // natural key: date/security/owners
	Cause error  // optional detail, e.g. the split-sum error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid transaction %s: field %q: %v", e.Key, e.Field, e.Cause)
	}
	return fmt.Sprintf("invalid transaction %s: missing required field %q", e.Key, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// validate checks the presence and consistency of a transaction's required
// fields.
func validate(tx Transaction) *ValidationError {
	key := tx.NaturalKey()
	switch {
	case tx.Date.IsZero():
		return &ValidationError{Field: "date", Key: key}
	case tx.Security == "":
		return &ValidationError{Field: "security", Key: key}
	case tx.Quantity.IsZero():
		return &ValidationError{Field: "quantity", Key: key}
	case tx.Currency() == "":
		return &ValidationError{Field: "currency", Key: key}
	}
	if err := ValidateCurrency(tx.Currency()); err != nil {
		return &ValidationError{Field: "currency", Key: key, Cause: err}
	}
	if err := tx.Split.Validate(); err != nil {
		return &ValidationError{Field: "split", Key: key, Cause: err}
	}
	return nil
}

// Normalize validates a batch of raw transactions and resolves funding
// splits into one owner-attributed Record per (transaction, owner) pair.
// The returned records are sorted chronologically, ready for a ledger
// replay.
//
// With RejectBatch, any invalid transaction fails the whole call. With
// SkipAndReport, invalid transactions are dropped and returned as
// ValidationErrors alongside the valid records.
func Normalize(txs []Transaction, policy ValidationPolicy) ([]Record, []*ValidationError, error) {
	var records []Record
	var skipped []*ValidationError

	for _, tx := range txs {
		if verr := validate(tx); verr != nil {
			if policy == RejectBatch {
				return nil, nil, verr
			}
			skipped = append(skipped, verr)
			continue
		}
		records = append(records, tx.records()...)
	}

	sortRecords(records)
	return records, skipped, nil
}

// ErrEmptyLedger is returned by computations that need at least one record.
var ErrEmptyLedger = errors.New("ledger has no records")
