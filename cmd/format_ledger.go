package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type formatLedgerCmd struct{}

func (*formatLedgerCmd) Name() string     { return "format-ledger" }
func (*formatLedgerCmd) Synopsis() string { return "formats the ledger file into a canonical form" }
func (*formatLedgerCmd) Usage() string {
	return `lv format-ledger:
  rewrites the ledger file in replay order, with ids, portfolios and
  sequences made explicit.
`
}

func (p *formatLedgerCmd) SetFlags(f *flag.FlagSet) {}

func (p *formatLedgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		if a.ledger == nil {
			return fmt.Errorf("format-ledger needs the file storage driver, not %q", a.cfg.Storage.Driver)
		}
		if err := encodeLedgerFile(a.cfg.Ledger.Path, a.ledger); err != nil {
			return err
		}
		fmt.Fprintf(output, "Ledger file '%s' has been formatted.\n", a.cfg.Ledger.Path)
		return nil
	})
}
