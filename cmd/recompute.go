package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/valuation"
	"github.com/google/subcommands"
)

type recomputeCmd struct {
	portfolio string
	asset     string
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "recompute and store holdings" }
func (*recomputeCmd) Usage() string {
	return `lv recompute [-p <portfolio>] [-a <asset>]

  Replays the transactions of every asset of a portfolio, or of every
  portfolio when -p is "*", and stores the resulting holdings. Holdings with
  nothing left are removed.
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", `Portfolio to recompute, defaults to the configured portfolio, "*" for all`)
	f.StringVar(&c.asset, "a", "", "Only recompute this asset")
}

func (c *recomputeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		portfolio := a.portfolio(c.portfolio)
		if portfolio == "*" {
			portfolio = ""
		}
		var pairs []valuation.Pair
		if c.asset != "" {
			pairs = []valuation.Pair{{Portfolio: a.portfolio(c.portfolio), Asset: c.asset}}
		} else {
			var err error
			if pairs, err = a.pairs(ctx, portfolio); err != nil {
				return err
			}
		}
		for _, p := range pairs {
			a.engine.TransactionChanged(p)
		}
		done, err := a.flush(ctx)
		fmt.Fprintf(output, "%d holdings recomputed\n", len(done))
		return err
	})
}
