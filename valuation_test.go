package famfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/linsean/famfolio/date"
)

func TestValueMissingRateZeroesOnlyForeignCells(t *testing.T) {
	// In March the USD/TWD rate is unknown: the USD position is valued at
	// zero with a warning naming exactly that pair and month, while the
	// TWD position in the same month keeps its normal value.
	records := []Record{
		buy("sean", "2023-03-01", "2330.TW", 100, 500, 0, 0, "TWD"),
		buy("sean", "2023-03-01", "QQQ", 10, 300, 0, 0, "USD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-03"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}

	prices := fakePrices{
		"2330.TW|2023-03": M(510, "TWD"),
		"QQQ|2023-03":     M(310, "USD"),
	}
	rates := fakeRates{} // no USD/TWD rate at all

	table, err := Value(context.Background(), positions, prices, rates, "TWD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}

	m := date.MustParseMonth("2023-03")
	if got, want := cell(t, table, "sean", "2330.TW", m), M(51000, "TWD"); !got.Equal(want) {
		t.Errorf("TWD cell = %v, want %v", got, want)
	}
	if got := cell(t, table, "sean", "QQQ", m); !got.IsZero() {
		t.Errorf("USD cell without a rate = %v, want zero", got)
	}

	if len(table.Missing) != 1 {
		t.Fatalf("Missing = %v, want exactly one warning", table.Missing)
	}
	w := table.Missing[0]
	if w.Kind != MissingRate || w.Entity != "USD/TWD" || w.Month != m || w.Fallback {
		t.Errorf("warning = %+v, want missing rate USD/TWD for 2023-03", w)
	}
}

func TestValueMissingPriceZeroesCellAndWarnsOnce(t *testing.T) {
	// Two months without a QQQ price produce two warnings, one per month,
	// even though several cells reference each.
	records := []Record{
		buy("sean", "2023-01-10", "QQQ", 10, 300, 0, 0, "USD"),
		buy("lo", "2023-01-10", "QQQ", 5, 300, 0, 0, "USD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-02"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}

	table, err := Value(context.Background(), positions, fakePrices{}, fakeRates{}, "USD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	for _, row := range table.Rows {
		if !row.Value.IsZero() {
			t.Errorf("row %v valued %v without a price, want zero", row, row.Value)
		}
	}
	if len(table.Missing) != 2 {
		t.Fatalf("Missing = %v, want one warning per month", table.Missing)
	}
	for i, want := range []string{"2023-01", "2023-02"} {
		w := table.Missing[i]
		if w.Kind != MissingPrice || w.Entity != "QQQ" || w.Month.String() != want {
			t.Errorf("Missing[%d] = %+v, want missing QQQ price for %s", i, w, want)
		}
	}
}

func TestValueSameCurrencySkipsRateLookup(t *testing.T) {
	records := []Record{
		buy("sean", "2023-01-10", "2330.TW", 100, 500, 0, 0, "TWD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-01"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}
	prices := fakePrices{"2330.TW|2023-01": M(505, "TWD")}

	// failingRates makes any fx lookup a test failure.
	table, err := Value(context.Background(), positions, prices, failingRates{fail: t.Errorf}, "TWD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	m := date.MustParseMonth("2023-01")
	if got, want := cell(t, table, "sean", "2330.TW", m), M(50500, "TWD"); !got.Equal(want) {
		t.Errorf("cell = %v, want %v", got, want)
	}
}

func TestValueConvertsAtMonthlyRate(t *testing.T) {
	records := []Record{
		buy("sean", "2023-01-10", "QQQ", 10, 300, 0, 0, "USD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-02"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}
	prices := fakePrices{
		"QQQ|2023-01": M(310, "USD"),
		"QQQ|2023-02": M(320, "USD"),
	}
	rates := fakeRates{
		"USD|TWD|2023-01": 30.5,
		"USD|TWD|2023-02": 31,
	}

	table, err := Value(context.Background(), positions, prices, rates, "TWD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	jan, feb := date.MustParseMonth("2023-01"), date.MustParseMonth("2023-02")
	if got, want := cell(t, table, "sean", "QQQ", jan), M(10*310*30.5, "TWD"); !got.Equal(want) {
		t.Errorf("January cell = %v, want %v", got, want)
	}
	if got, want := cell(t, table, "sean", "QQQ", feb), M(10*320*31, "TWD"); !got.Equal(want) {
		t.Errorf("February cell = %v, want %v", got, want)
	}
	if len(table.Missing) != 0 {
		t.Errorf("Missing = %v, want none", table.Missing)
	}
}

func TestValueFallbackRateIsFlagged(t *testing.T) {
	records := []Record{
		buy("sean", "2023-01-10", "QQQ", 10, 300, 0, 0, "USD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-01"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}
	prices := fakePrices{"QQQ|2023-01": M(300, "USD")}

	table, err := Value(context.Background(), positions, prices, fallbackRates(30), "TWD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	m := date.MustParseMonth("2023-01")
	if got, want := cell(t, table, "sean", "QQQ", m), M(90000, "TWD"); !got.Equal(want) {
		t.Errorf("cell = %v, want %v", got, want)
	}
	if len(table.Missing) != 1 {
		t.Fatalf("Missing = %v, want one fallback warning", table.Missing)
	}
	w := table.Missing[0]
	if w.Kind != MissingRate || w.Entity != "USD/TWD" || !w.Fallback {
		t.Errorf("warning = %+v, want fallback rate USD/TWD", w)
	}
}

func TestValueOwnerAndGrandTotals(t *testing.T) {
	records := []Record{
		buy("sean", "2023-01-10", "2330.TW", 100, 500, 0, 0, "TWD"),
		buy("sean", "2023-01-10", "0050.TW", 200, 100, 0, 0, "TWD"),
		buy("lo", "2023-01-10", "2330.TW", 50, 500, 0, 0, "TWD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-01"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}
	prices := fakePrices{
		"2330.TW|2023-01": M(510, "TWD"),
		"0050.TW|2023-01": M(110, "TWD"),
	}

	table, err := Value(context.Background(), positions, prices, fakeRates{}, "TWD")
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	m := date.MustParseMonth("2023-01")
	if got, want := table.OwnerTotal("sean", m), M(100*510+200*110, "TWD"); !got.Equal(want) {
		t.Errorf("OwnerTotal(sean) = %v, want %v", got, want)
	}
	if got, want := table.OwnerTotal("lo", m), M(50*510, "TWD"); !got.Equal(want) {
		t.Errorf("OwnerTotal(lo) = %v, want %v", got, want)
	}
	if got, want := table.GrandTotal(m), M(100*510+200*110+50*510, "TWD"); !got.Equal(want) {
		t.Errorf("GrandTotal = %v, want %v", got, want)
	}
}

func TestValueRejectsUnknownReportingCurrency(t *testing.T) {
	records := []Record{
		buy("sean", "2023-01-10", "X", 1, 1, 0, 0, "TWD"),
	}
	positions, err := SnapshotPositions(records, date.MustParseMonth("2023-01"))
	if err != nil {
		t.Fatalf("SnapshotPositions() failed: %v", err)
	}
	if _, err := Value(context.Background(), positions, fakePrices{}, fakeRates{}, "XQZ"); err == nil {
		t.Error("Value() accepted an unknown reporting currency")
	}
}

func TestValueEmptyPositions(t *testing.T) {
	if _, err := Value(context.Background(), nil, fakePrices{}, fakeRates{}, "TWD"); !errors.Is(err, ErrEmptyLedger) {
		t.Errorf("Value(nil) = %v, want ErrEmptyLedger", err)
	}
}

// cell extracts one valued cell or fails the test.
func cell(t *testing.T, table *ValuationTable, owner Owner, security string, m date.Month) Money {
	t.Helper()
	for _, row := range table.Rows {
		if row.Owner == owner && row.Security == security && row.Month == m {
			return row.Value
		}
	}
	t.Fatalf("no row for %s/%s in %s", owner, security, m)
	return Money{}
}
