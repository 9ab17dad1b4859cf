package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/linsean/famfolio/date"
)

// refreshCmd holds the flags for the 'refresh' subcommand.
type refreshCmd struct {
	month string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "refetch market data for a month" }
func (*refreshCmd) Usage() string {
	return `ffo refresh [-m <month>]

  Drops the stored prices and fx rates for a month and refetches them.
  Defaults to the current month, whose closes keep moving until it ends.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", date.ThisMonth().String(), "Month to refresh (YYYY-MM)")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := date.ParseMonth(c.month)
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

	folio, err := NewFolio(store, folioOptions(false))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := store.Refresh(ctx, Fetcher(), folio.Securities(), folio.ReportingCurrency, m); err != nil {
		fmt.Fprintf(os.Stderr, "Error refreshing %s: %v\n", m, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Refreshed market data for %s\n", m)
	return subcommands.ExitSuccess
}
