package famfolio

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

// Owner identifies one of the people funding the ledger. Joint positions
// are never a pseudo-owner: they are a Transaction whose Split names more
// than one Owner.
type Owner string

// splitTolerance is how far a funding split may drift from summing to 1.
var splitTolerance = decimal.NewFromFloat(1e-6)

// FundingSplit maps each funding owner to their fraction of a transaction's
// economic effect. Fractions must sum to 1 within splitTolerance.
type FundingSplit map[Owner]decimal.Decimal

// Sole returns the split of a transaction funded entirely by one owner.
func Sole(owner Owner) FundingSplit {
	return FundingSplit{owner: decimal.NewFromInt(1)}
}

// Validate checks that the split is non-empty, has no negative fraction,
// and sums to 1 within tolerance.
func (s FundingSplit) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("funding split is empty")
	}
	sum := decimal.Zero
	for owner, frac := range s {
		if owner == "" {
			return fmt.Errorf("funding split names an empty owner")
		}
		if frac.IsNegative() {
			return fmt.Errorf("funding split fraction for %q is negative", owner)
		}
		sum = sum.Add(frac)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(splitTolerance) {
		return fmt.Errorf("funding split sums to %s, want 1", sum)
	}
	return nil
}

// Owners returns the owners with a nonzero fraction, sorted for
// deterministic iteration.
func (s FundingSplit) Owners() []Owner {
	owners := make([]Owner, 0, len(s))
	for owner, frac := range s {
		if frac.IsZero() {
			continue
		}
		owners = append(owners, owner)
	}
	slices.Sort(owners)
	return owners
}

// String renders the split as "sean:0.5,lo:0.5" with owners sorted.
func (s FundingSplit) String() string {
	parts := make([]string, 0, len(s))
	for _, owner := range s.Owners() {
		parts = append(parts, fmt.Sprintf("%s:%s", owner, s[owner]))
	}
	return strings.Join(parts, ",")
}

// Transaction is a single immutable economic event: a buy (positive
// quantity) or a sell (negative quantity) of a security, possibly funded
// jointly by several owners.
//
// Price carries the transaction currency; Fee and Tax are denominated in
// the same currency.
type Transaction struct {
	ID       string       `json:"id,omitempty"`
	Date     date.Date    `json:"date"`
	Security string       `json:"security"`
	Quantity Quantity     `json:"quantity"`
	Price    Money        `json:"price"`
	Fee      Money        `json:"fee"`
	Tax      Money        `json:"tax"`
	Split    FundingSplit `json:"split"`
}

// Currency returns the transaction currency.
func (t Transaction) Currency() string { return t.Price.Currency() }

// IsBuy reports whether the transaction acquires shares.
func (t Transaction) IsBuy() bool { return t.Quantity.IsPositive() }

// IsSell reports whether the transaction disposes of shares.
func (t Transaction) IsSell() bool { return t.Quantity.IsNegative() }

// NaturalKey identifies the transaction in error messages: date, security
// and the owners funding it.
func (t Transaction) NaturalKey() string {
	owners := make([]string, 0, len(t.Split))
	for _, o := range t.Split.Owners() {
		owners = append(owners, string(o))
	}
	return fmt.Sprintf("%s/%s/%s", t.Date, t.Security, strings.Join(owners, "+"))
}

// Record is a Transaction's economic effect attributed to a single owner:
// quantity, fee and tax are scaled by the owner's funding fraction, the
// per-share price is copied unscaled. Records are derived once at
// normalization time and immutable thereafter.
type Record struct {
	Owner    Owner
	Date     date.Date
	Security string
	Quantity Quantity // signed: positive buy, negative sell
	Price    Money    // per share, in the transaction currency
	Fee      Money
	Tax      Money
}

// Currency returns the record's transaction currency.
func (r Record) Currency() string { return r.Price.Currency() }

// records returns one owner-attributed Record per owner with a nonzero
// fraction, in deterministic owner order.
func (t Transaction) records() []Record {
	out := make([]Record, 0, len(t.Split))
	for _, owner := range t.Split.Owners() {
		frac := Q(t.Split[owner])
		out = append(out, Record{
			Owner:    owner,
			Date:     t.Date,
			Security: t.Security,
			Quantity: t.Quantity.Mul(frac),
			Price:    t.Price,
			Fee:      t.Fee.Mul(frac),
			Tax:      t.Tax.Mul(frac),
		})
	}
	return out
}

// sortRecords orders records chronologically, with a stable tie-break on
// security then owner so replays are deterministic.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if c := records[i].Date.Compare(records[j].Date); c != 0 {
			return c < 0
		}
		if records[i].Security != records[j].Security {
			return records[i].Security < records[j].Security
		}
		return records[i].Owner < records[j].Owner
	})
}

// sortTransactions orders transactions chronologically with a stable
// tie-break on security then ID.
func sortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if c := txs[i].Date.Compare(txs[j].Date); c != 0 {
			return c < 0
		}
		if txs[i].Security != txs[j].Security {
			return txs[i].Security < txs[j].Security
		}
		return txs[i].ID < txs[j].ID
	})
}
