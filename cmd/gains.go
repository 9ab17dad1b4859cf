package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/linsean/famfolio"
	"github.com/linsean/famfolio/date"
	"github.com/linsean/famfolio/renderer"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	period     string
	month      string
	unrealized bool
	tolerant   bool
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "display realized and unrealized gains per owner" }
func (*gainsCmd) Usage() string {
	return `ffo gains [-p <yearly|monthly>] [-u] [-m <month>]

  Displays realized gains per owner, grouped by period, each sale
  converted at its own sell date. With -u it also shows the unrealized
  gain standing on the open lots as of the given month.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "yearly", "Grouping period (yearly, monthly)")
	f.BoolVar(&c.unrealized, "u", false, "Also display unrealized gains on open lots")
	f.StringVar(&c.month, "m", date.ThisMonth().String(), "As-of month for unrealized gains (YYYY-MM)")
	f.BoolVar(&c.tolerant, "tolerant", false, "Book oversells as zero-cost shorts instead of failing")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := famfolio.ParsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
		return subcommands.ExitUsageError
	}
	asOf, err := date.ParseMonth(c.month)
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

	realized, err := folio.Realized(ctx, period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing realized gains: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RealizedMarkdown(realized))

	if c.unrealized {
		unrealized, err := folio.Unrealized(ctx, asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing unrealized gains: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.UnrealizedMarkdown(unrealized))
	}

	return subcommands.ExitSuccess
}
