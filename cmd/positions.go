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

// positionsCmd holds the flags for the 'positions' subcommand.
type positionsCmd struct {
	month    string
	tolerant bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display monthly positions per owner and security" }
func (*positionsCmd) Usage() string {
	return `ffo positions [-m <month>]

  Displays the cumulative open quantity per (owner, security) at the end
  of every month, from the first transaction through the given month.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", date.ThisMonth().String(), "Last month of the report (YYYY-MM)")
	f.BoolVar(&c.tolerant, "tolerant", false, "Book oversells as zero-cost shorts instead of failing")
}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	positions, err := folio.Positions(through)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing positions: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.PositionsMarkdown(positions))
	return subcommands.ExitSuccess
}
