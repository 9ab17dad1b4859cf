package famfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/linsean/famfolio/date"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// CSV import format. The transactions file mirrors the broker export the
// ledger was historically kept in:
//
//	id,date,security,quantity,price,currency,fee,tax,owner
//
// 'owner' names the sole funder, or "joint" when the funding is split; the
// split fractions for joint rows come from a second, optional ownership
// file joined on the transaction id:
//
//	id,owner,fraction
//
// Rows without an id are assigned a ULID derived from the transaction
// date, so re-importing the same file is stable enough to diff.

// JointOwner marks a transaction whose funding split lives in the
// ownership file.
const JointOwner = "joint"

// ImportError reports a malformed CSV row.
type ImportError struct {
	Line  int
	Field string
	Cause error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import: line %d: field %q: %v", e.Line, e.Field, e.Cause)
}

func (e *ImportError) Unwrap() error { return e.Cause }

// ImportCSV reads the transactions CSV and, when non-nil, the ownership
// CSV, and returns the joined transactions sorted chronologically. Joint
// rows without a matching ownership entry are an error: a funding split is
// never guessed.
func ImportCSV(transactions io.Reader, ownership io.Reader) ([]Transaction, error) {
	splits := make(map[string]FundingSplit)
	if ownership != nil {
		var err error
		splits, err = importOwnership(ownership)
		if err != nil {
			return nil, err
		}
	}

	rd := csv.NewReader(transactions)
	rd.TrimLeadingSpace = true
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("import: cannot read transactions csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("import: transactions csv is empty")
	}

	col, err := headerIndex(rows[0], "date", "security", "quantity", "price", "currency", "owner")
	if err != nil {
		return nil, err
	}

	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	var txs []Transaction
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after the header
		tx, err := importRow(row, col, line, splits)
		if err != nil {
			return nil, err
		}
		if tx.ID == "" {
			// Stable-ish IDs: ULID time component from the transaction date.
			ms := ulid.Timestamp(time.Date(tx.Date.Year(), tx.Date.Month().Mon(), tx.Date.Day(), 0, 0, 0, 0, time.UTC))
			tx.ID = ulid.MustNew(ms, entropy).String()
		}
		txs = append(txs, tx)
	}

	sortTransactions(txs)
	return txs, nil
}

func importRow(row []string, col map[string]int, line int, splits map[string]FundingSplit) (Transaction, error) {
	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	day, err := date.Parse(get("date"))
	if err != nil {
		return Transaction{}, &ImportError{Line: line, Field: "date", Cause: err}
	}
	quantity, err := decimal.NewFromString(get("quantity"))
	if err != nil {
		return Transaction{}, &ImportError{Line: line, Field: "quantity", Cause: err}
	}
	price, err := decimal.NewFromString(get("price"))
	if err != nil {
		return Transaction{}, &ImportError{Line: line, Field: "price", Cause: err}
	}
	fee, err := decimalOrZero(get("fee"))
	if err != nil {
		return Transaction{}, &ImportError{Line: line, Field: "fee", Cause: err}
	}
	tax, err := decimalOrZero(get("tax"))
	if err != nil {
		return Transaction{}, &ImportError{Line: line, Field: "tax", Cause: err}
	}

	currency := strings.ToUpper(get("currency"))
	id := get("id")

	var split FundingSplit
	owner := strings.ToLower(get("owner"))
	if owner == JointOwner || owner == "" {
		s, ok := splits[id]
		if !ok {
			return Transaction{}, &ImportError{Line: line, Field: "owner",
				Cause: fmt.Errorf("joint transaction %q has no ownership entry", id)}
		}
		split = s
	} else {
		split = Sole(Owner(owner))
	}

	return Transaction{
		ID:       id,
		Date:     day,
		Security: get("security"),
		Quantity: Q(quantity),
		Price:    M(price, currency),
		Fee:      M(fee, currency),
		Tax:      M(tax, currency),
		Split:    split,
	}, nil
}

// importOwnership reads the id,owner,fraction file into per-transaction
// funding splits.
func importOwnership(r io.Reader) (map[string]FundingSplit, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("import: cannot read ownership csv: %w", err)
	}
	if len(rows) == 0 {
		return map[string]FundingSplit{}, nil
	}
	col, err := headerIndex(rows[0], "id", "owner", "fraction")
	if err != nil {
		return nil, err
	}

	splits := make(map[string]FundingSplit)
	for i, row := range rows[1:] {
		line := i + 2
		id := strings.TrimSpace(row[col["id"]])
		owner := Owner(strings.ToLower(strings.TrimSpace(row[col["owner"]])))
		frac, err := decimal.NewFromString(strings.TrimSpace(row[col["fraction"]]))
		if err != nil {
			return nil, &ImportError{Line: line, Field: "fraction", Cause: err}
		}
		if splits[id] == nil {
			splits[id] = make(FundingSplit)
		}
		splits[id][owner] = splits[id][owner].Add(frac)
	}
	return splits, nil
}

// headerIndex maps lowercased column names to their index and checks that
// the required ones are present.
func headerIndex(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("import: csv is missing required column %q", name)
		}
	}
	return col, nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
