package famfolio

import (
	"context"
	"testing"

	"github.com/linsean/famfolio/date"
	"github.com/shopspring/decimal"
)

// End-to-end: a small mixed-currency, joint-ownership log flows from raw
// transactions through normalization, FIFO replay, snapshots and valuation.
func TestFolioPipeline(t *testing.T) {
	txs := []Transaction{
		{
			ID: "t1", Date: date.MustParse("2023-01-05"), Security: "2330.TW",
			Quantity: Q(100), Price: M(500, "TWD"), Fee: M(10, "TWD"),
			Split: FundingSplit{"sean": decimal.NewFromFloat(0.6), "lo": decimal.NewFromFloat(0.4)},
		},
		{
			ID: "t2", Date: date.MustParse("2023-02-10"), Security: "QQQ",
			Quantity: Q(10), Price: M(300, "USD"), Fee: M(1, "USD"),
			Split: Sole("sean"),
		},
		{
			ID: "t3", Date: date.MustParse("2023-03-15"), Security: "2330.TW",
			Quantity: Q(-30), Price: M(550, "TWD"),
			Split: Sole("sean"),
		},
	}
	prices := fakePrices{
		"2330.TW|2023-01": M(505, "TWD"),
		"2330.TW|2023-02": M(510, "TWD"),
		"2330.TW|2023-03": M(540, "TWD"),
		"QQQ|2023-02":     M(305, "USD"),
		"QQQ|2023-03":     M(310, "USD"),
	}
	rates := fakeRates{
		"USD|TWD|2023-02": 30,
		"USD|TWD|2023-03": 31,
	}

	folio, skipped, err := NewFolio(txs, prices, rates, "TWD", FolioOptions{})
	if err != nil {
		t.Fatalf("NewFolio() failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}

	// t1 splits into two records, t2 and t3 stay whole.
	if got := len(folio.Records()); got != 4 {
		t.Errorf("Records() = %d, want 4", got)
	}

	march := date.MustParseMonth("2023-03")
	valuation, err := folio.Valuation(context.Background(), march)
	if err != nil {
		t.Fatalf("Valuation() failed: %v", err)
	}
	if len(valuation.Missing) != 0 {
		t.Fatalf("Missing = %v, want none", valuation.Missing)
	}
	// sean in March: 60-30 shares of 2330.TW at 540 plus 10 QQQ at 310*31.
	if got, want := valuation.OwnerTotal("sean", march), M(30*540+10*310*31, "TWD"); !got.Equal(want) {
		t.Errorf("OwnerTotal(sean, 2023-03) = %v, want %v", got, want)
	}
	if got, want := valuation.OwnerTotal("lo", march), M(40*540, "TWD"); !got.Equal(want) {
		t.Errorf("OwnerTotal(lo, 2023-03) = %v, want %v", got, want)
	}

	realized, err := folio.Realized(context.Background(), Yearly)
	if err != nil {
		t.Fatalf("Realized() failed: %v", err)
	}
	if len(realized.Rows) != 1 {
		t.Fatalf("Realized rows = %v, want sean's single bucket", realized.Rows)
	}
	// Sell 30 of sean's 60-share lot: cost 30*500 + 10*0.6*(30/60),
	// proceeds 30*550, both already in TWD.
	row := realized.Rows[0]
	if want := M(30*550-(30*500+3), "TWD"); !row.Gain.Equal(want) {
		t.Errorf("realized gain = %v, want %v", row.Gain, want)
	}

	unrealized, err := folio.Unrealized(context.Background(), march)
	if err != nil {
		t.Fatalf("Unrealized() failed: %v", err)
	}
	if got := len(unrealized.Rows); got != 3 {
		t.Errorf("Unrealized rows = %d, want 3 open positions", got)
	}

	securities := folio.Securities()
	if securities["2330.TW"] != "TWD" || securities["QQQ"] != "USD" {
		t.Errorf("Securities() = %v, want 2330.TW->TWD, QQQ->USD", securities)
	}
}

func TestFolioRejectsUnknownReportingCurrency(t *testing.T) {
	if _, _, err := NewFolio(nil, fakePrices{}, fakeRates{}, "XQZ", FolioOptions{}); err == nil {
		t.Error("NewFolio() accepted an unknown reporting currency")
	}
}
