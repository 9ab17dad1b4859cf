package famfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// The ledger file is JSONL: one transaction per line, human readable and
// trivially merged or appended. Example line:
//
//	{"id":"01H...","date":"2023-01-05","security":"2330.TW","quantity":100,"price":500,"currency":"TWD","fee":10,"tax":0,"split":{"sean":0.5,"lo":0.5}}

// jtransaction is the wire form of a Transaction. Price, fee and tax share
// a single currency field.
type jtransaction struct {
	ID       string                     `json:"id,omitempty"`
	Date     date.Date                  `json:"date"`
	Security string                     `json:"security"`
	Quantity decimal.Decimal            `json:"quantity"`
	Price    decimal.Decimal            `json:"price"`
	Currency string                     `json:"currency"`
	Fee      decimal.Decimal            `json:"fee"`
	Tax      decimal.Decimal            `json:"tax"`
	Split    map[string]decimal.Decimal `json:"split"`
}

func toWire(t Transaction) jtransaction {
	split := make(map[string]decimal.Decimal, len(t.Split))
	for owner, frac := range t.Split {
		split[string(owner)] = frac
	}
	return jtransaction{
		ID:       t.ID,
		Date:     t.Date,
		Security: t.Security,
		Quantity: t.Quantity.Decimal(),
		Price:    t.Price.Amount(),
		Currency: t.Currency(),
		Fee:      t.Fee.Amount(),
		Tax:      t.Tax.Amount(),
		Split:    split,
	}
}

func fromWire(j jtransaction) Transaction {
	split := make(FundingSplit, len(j.Split))
	for owner, frac := range j.Split {
		split[Owner(owner)] = frac
	}
	return Transaction{
		ID:       j.ID,
		Date:     j.Date,
		Security: j.Security,
		Quantity: Q(j.Quantity),
		Price:    M(j.Price, j.Currency),
		Fee:      M(j.Fee, j.Currency),
		Tax:      M(j.Tax, j.Currency),
		Split:    split,
	}
}

// DecodeTransactions reads a JSONL transaction log and returns the
// transactions sorted chronologically. Empty lines are skipped.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var j jtransaction
		if err := json.Unmarshal(raw, &j); err != nil {
			return nil, fmt.Errorf("cannot parse transaction on line %d: %w", line, err)
		}
		txs = append(txs, fromWire(j))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read transaction log: %w", err)
	}
	sortTransactions(txs)
	return txs, nil
}

// EncodeTransaction appends one transaction to w in the canonical JSONL
// form.
func EncodeTransaction(w io.Writer, t Transaction) error {
	data, err := json.Marshal(toWire(t))
	if err != nil {
		return fmt.Errorf("cannot marshal transaction %s: %w", t.NaturalKey(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write transaction %s: %w", t.NaturalKey(), err)
	}
	return nil
}

// EncodeTransactions writes the whole log in canonical form: sorted
// chronologically, one transaction per line.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sortTransactions(sorted)
	for _, t := range sorted {
		if err := EncodeTransaction(w, t); err != nil {
			return err
		}
	}
	return nil
}
