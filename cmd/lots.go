package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type lotsCmd struct {
	portfolio string
	asset     string
	date      string
	disposals bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "display the tax lots of an asset" }
func (*lotsCmd) Usage() string {
	return `lv lots -a <asset> [-p <portfolio>] [-d <date>] [-disposals]

  Displays the open lots of an asset with their holding period on a date,
  or the realized disposals lot by lot.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to report on, defaults to the configured portfolio")
	f.StringVar(&c.asset, "a", "", "Asset to report on")
	f.StringVar(&c.date, "d", date.Today().String(), "Date the holding periods are computed on")
	f.BoolVar(&c.disposals, "disposals", false, "display the disposals instead of the open lots")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		fmt.Fprintln(os.Stderr, "Error: -a is required")
		return subcommands.ExitUsageError
	}
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		h, err := a.engine.ComputeHolding(ctx, a.portfolio(c.portfolio), c.asset)
		if err != nil {
			return err
		}
		if c.disposals {
			printMarkdown(renderer.DisposalsMarkdown(h))
		} else {
			printMarkdown(renderer.LotsMarkdown(h, on))
		}
		return nil
	})
}
