package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	portfolio string
	asset     string
	all       bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the holdings of a portfolio" }
func (*holdingCmd) Usage() string {
	return `lv holding [-p <portfolio>] [-a <asset>] [-all]

  Displays the holdings of a portfolio valued at today's price, or a single
  holding in detail with its lots, disposals and warnings.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to report on, defaults to the configured portfolio")
	f.StringVar(&c.asset, "a", "", "Asset to report on in detail")
	f.BoolVar(&c.all, "all", false, "include the assets that are no longer held")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		portfolio := a.portfolio(c.portfolio)
		if c.asset != "" {
			h, err := a.engine.ComputeHolding(ctx, portfolio, c.asset)
			if err != nil {
				return err
			}
			printMarkdown(renderer.HoldingMarkdown(h))
			return nil
		}
		holdings, err := a.engine.Holdings(ctx, portfolio, c.all)
		if err != nil {
			return fmt.Errorf("cannot compute holdings: %w", err)
		}
		printMarkdown(renderer.HoldingsMarkdown(portfolio, holdings))
		return nil
	})
}
