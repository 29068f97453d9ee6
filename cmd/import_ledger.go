package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/google/subcommands"
)

type importLedgerCmd struct {
	file string
}

func (*importLedgerCmd) Name() string     { return "import-ledger" }
func (*importLedgerCmd) Synopsis() string { return "import transactions from a JSONL file" }
func (*importLedgerCmd) Usage() string {
	return `lv import-ledger -f <file>

  Adds the transactions of a JSONL file to the storage, replacing those
  with the same id, then recomputes the holdings they change.
`
}

func (c *importLedgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "JSONL file of transactions to import")
}

func (c *importLedgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f is required")
		return subcommands.ExitUsageError
	}
	in, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer in.Close()
	imported, err := valuation.DecodeLedger(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}

	return withApp(ctx, func(a *app) error {
		txs := imported.Collect()
		if err := a.addTransactions(ctx, txs); err != nil {
			return err
		}
		done, err := a.flush(ctx)
		fmt.Fprintf(output, "%d transactions imported, %d holdings recomputed\n", len(txs), len(done))
		return err
	})
}
