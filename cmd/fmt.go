package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/linsean/famfolio"
)

// fmtCmd rewrites the ledger file in canonical form.
type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and rewrites the ledger file in canonical form"
}
func (*fmtCmd) Usage() string {
	return `ffo fmt

  Reads the ledger, validates every transaction, sorts them by date and
  writes them back in canonical JSONL form.
`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (*fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(txs) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: ledger is empty, nothing to format.")
		return subcommands.ExitSuccess
	}

	// Validation only; the canonical file keeps every valid transaction.
	if _, _, err := famfolio.Normalize(txs, famfolio.RejectBatch); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(*ledgerFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := famfolio.EncodeTransactions(out, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Formatted %d transactions in %s\n", len(txs), *ledgerFile)
	return subcommands.ExitSuccess
}
