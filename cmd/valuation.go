package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/linsean/famfolio/date"
	"github.com/linsean/famfolio/renderer"
)

// valuationCmd holds the flags for the 'valuation' subcommand.
type valuationCmd struct {
	month    string
	sync     bool
	tolerant bool
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "display monthly market values in the reporting currency" }
func (*valuationCmd) Usage() string {
	return `ffo valuation [-m <month>] [-sync]

  Marks the monthly positions to market in the reporting currency, with
  per-owner and grand totals. Months whose price or fx rate is unknown
  are valued at zero and listed under Warnings.
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", date.ThisMonth().String(), "Last month of the report (YYYY-MM)")
	f.BoolVar(&c.sync, "sync", false, "Fetch missing market data before valuing")
	f.BoolVar(&c.tolerant, "tolerant", false, "Book oversells as zero-cost shorts instead of failing")
}

func (c *valuationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	through, err := date.ParseMonth(c.month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing month: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening market store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	folio, err := NewFolio(store, folioOptions(c.tolerant))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.sync {
		positions, err := folio.Positions(through)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing positions: %v\n", err)
			return subcommands.ExitFailure
		}
		months := positions.Months()
		first, last := months[0], months[len(months)-1]
		if err := store.Ensure(ctx, Fetcher(), folio.Securities(), folio.ReportingCurrency, first, last); err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing market data: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	valuation, err := folio.Valuation(ctx, through)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing valuation: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.ValuationMarkdown(valuation))
	return subcommands.ExitSuccess
}
