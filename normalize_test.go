package famfolio

import (
	"errors"
	"strings"
	"testing"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

func validTx() Transaction {
	return Transaction{
		Date:     date.MustParse("2023-01-05"),
		Security: "2330.TW",
		Quantity: Q(100),
		Price:    M(500, "TWD"),
		Fee:      M(10, "TWD"),
		Split:    Sole("sean"),
	}
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Transaction)
		wantField string
	}{
		{name: "missing date", mutate: func(tx *Transaction) { tx.Date = date.Date{} }, wantField: "date"},
		{name: "missing security", mutate: func(tx *Transaction) { tx.Security = "" }, wantField: "security"},
		{name: "zero quantity", mutate: func(tx *Transaction) { tx.Quantity = Q(0) }, wantField: "quantity"},
		{name: "missing currency", mutate: func(tx *Transaction) { tx.Price = M(500, "") }, wantField: "currency"},
		{name: "bogus currency", mutate: func(tx *Transaction) { tx.Price = M(500, "XQZ") }, wantField: "currency"},
		{name: "split not summing to 1", mutate: func(tx *Transaction) {
			tx.Split = FundingSplit{"sean": decimal.NewFromFloat(0.5), "lo": decimal.NewFromFloat(0.4)}
		}, wantField: "split"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTx()
			tc.mutate(&tx)

			_, _, err := Normalize([]Transaction{tx}, RejectBatch)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Normalize() = %v, want *ValidationError", err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("error names field %q, want %q", verr.Field, tc.wantField)
			}
			if verr.Key == "" || !strings.Contains(verr.Error(), verr.Key) {
				t.Errorf("error %q does not carry the natural key", verr.Error())
			}
		})
	}
}

func TestNormalizeSkipAndReport(t *testing.T) {
	bad := validTx()
	bad.Security = ""
	good := validTx()

	records, skipped, err := Normalize([]Transaction{bad, good}, SkipAndReport)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if len(skipped) != 1 || skipped[0].Field != "security" {
		t.Errorf("skipped = %v, want one error on field security", skipped)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1 from the valid transaction", len(records))
	}
}

func TestNormalizeSortsChronologically(t *testing.T) {
	later := validTx()
	later.Date = date.MustParse("2023-06-01")
	earlier := validTx()
	earlier.Date = date.MustParse("2023-02-01")

	records, _, err := Normalize([]Transaction{later, earlier}, RejectBatch)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Date.After(records[1].Date) {
		t.Errorf("records out of order: %s before %s", records[0].Date, records[1].Date)
	}
}
