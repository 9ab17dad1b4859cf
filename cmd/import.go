package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/linsean/famfolio"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	transactions string
	ownership    string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a transactions csv into the ledger" }
func (*importCmd) Usage() string {
	return `ffo import -tx <transactions.csv> [-ownership <ownership.csv>]

  Imports a transactions CSV (id,date,security,quantity,price,currency,
  fee,tax,owner) into the ledger file in canonical JSONL form. Rows whose
  owner is "joint" take their funding split from the ownership CSV
  (id,owner,fraction), joined on the transaction id. Rows without an id
  are assigned one.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.transactions, "tx", "", "Transactions CSV to import")
	f.StringVar(&c.ownership, "ownership", "", "Ownership CSV with funding splits for joint rows")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.transactions == "" {
		fmt.Fprintln(os.Stderr, "Error: -tx is required")
		return subcommands.ExitUsageError
	}

	txFile, err := os.Open(c.transactions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening transactions csv: %v\n", err)
		return subcommands.ExitFailure
	}
	defer txFile.Close()

	var ownership io.Reader
	if c.ownership != "" {
		ownFile, err := os.Open(c.ownership)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening ownership csv: %v\n", err)
			return subcommands.ExitFailure
		}
		defer ownFile.Close()
		ownership = ownFile
	}

	imported, err := famfolio.ImportCSV(txFile, ownership)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}

	existing, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(*ledgerFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := famfolio.EncodeTransactions(out, append(existing, imported...)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d transactions into %s\n", len(imported), *ledgerFile)
	return subcommands.ExitSuccess
}
