package famfolio

import (
	"testing"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

func TestFundingSplitValidate(t *testing.T) {
	testCases := []struct {
		name    string
		split   FundingSplit
		wantErr bool
	}{
		{name: "sole owner", split: Sole("sean")},
		{name: "fifty fifty", split: FundingSplit{"sean": decimal.NewFromFloat(0.5), "lo": decimal.NewFromFloat(0.5)}},
		{name: "uneven thirds within tolerance", split: FundingSplit{
			"sean": decimal.NewFromFloat(0.333333),
			"lo":   decimal.NewFromFloat(0.333333),
			"kai":  decimal.NewFromFloat(0.333334),
		}},
		{name: "empty", split: FundingSplit{}, wantErr: true},
		{name: "sums to 0.9", split: FundingSplit{"sean": decimal.NewFromFloat(0.9)}, wantErr: true},
		{name: "sums to 1.1", split: FundingSplit{"sean": decimal.NewFromFloat(0.6), "lo": decimal.NewFromFloat(0.5)}, wantErr: true},
		{name: "negative fraction", split: FundingSplit{"sean": decimal.NewFromFloat(1.5), "lo": decimal.NewFromFloat(-0.5)}, wantErr: true},
		{name: "empty owner name", split: FundingSplit{"": decimal.NewFromInt(1)}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.split.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %t", err, tc.wantErr)
			}
		})
	}
}

// A 50/50 transaction for 10 shares at 20 yields two records of 5 shares
// each, both at the unscaled per-share price.
func TestJointTransactionSplitsIntoRecords(t *testing.T) {
	tx := Transaction{
		Date:     date.MustParse("2023-05-02"),
		Security: "QQQ",
		Quantity: Q(10),
		Price:    M(20, "USD"),
		Fee:      M(4, "USD"),
		Tax:      M(2, "USD"),
		Split:    FundingSplit{"sean": decimal.NewFromFloat(0.5), "lo": decimal.NewFromFloat(0.5)},
	}

	records := tx.records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if !r.Quantity.Equal(Q(5)) {
			t.Errorf("record %s quantity = %s, want 5", r.Owner, r.Quantity)
		}
		if !r.Price.Equal(M(20, "USD")) {
			t.Errorf("record %s price = %s, want unscaled 20", r.Owner, r.Price.Amount())
		}
		if !r.Fee.Equal(M(2, "USD")) || !r.Tax.Equal(M(1, "USD")) {
			t.Errorf("record %s fee/tax = %s/%s, want 2/1", r.Owner, r.Fee.Amount(), r.Tax.Amount())
		}
	}
	// Deterministic owner order.
	if records[0].Owner != "lo" || records[1].Owner != "sean" {
		t.Errorf("record order = %s, %s; want lo, sean", records[0].Owner, records[1].Owner)
	}
}

// The attributed quantities always sum back to the original signed
// quantity, whatever the split.
func TestSplitSumInvariant(t *testing.T) {
	splits := []FundingSplit{
		Sole("sean"),
		{"sean": decimal.NewFromFloat(0.5), "lo": decimal.NewFromFloat(0.5)},
		{"sean": decimal.NewFromFloat(0.7), "lo": decimal.NewFromFloat(0.3)},
		{"sean": decimal.NewFromFloat(0.333333), "lo": decimal.NewFromFloat(0.333333), "kai": decimal.NewFromFloat(0.333334)},
	}
	tolerance := decimal.NewFromFloat(1e-6)
	for _, split := range splits {
		tx := Transaction{
			Date:     date.MustParse("2023-01-01"),
			Security: "X",
			Quantity: Q(-37),
			Price:    M(10, "TWD"),
			Split:    split,
		}
		var sum Quantity
		for _, r := range tx.records() {
			sum = sum.Add(r.Quantity)
		}
		if sum.Sub(tx.Quantity).Abs().Decimal().GreaterThan(tolerance) {
			t.Errorf("split %v: attributed sum %s != signed quantity %s", split, sum, tx.Quantity)
		}
	}
}

func TestOwnersWithZeroFractionAreDropped(t *testing.T) {
	tx := Transaction{
		Date:     date.MustParse("2023-01-01"),
		Security: "X",
		Quantity: Q(10),
		Price:    M(1, "TWD"),
		Split:    FundingSplit{"sean": decimal.NewFromInt(1), "lo": decimal.Zero},
	}
	records := tx.records()
	if len(records) != 1 || records[0].Owner != "sean" {
		t.Errorf("records = %v, want a single record for sean", records)
	}
}
