package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type historyCmd struct {
	portfolio  string
	window     string
	resolution string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the value of a portfolio over time" }
func (*historyCmd) Usage() string {
	return `lv history [-p <portfolio>] [-w <window>] [-r <resolution>]

  Displays the value of a portfolio over a window ending today, sampled at
  a resolution. Windows are today, week, month, quarter, year and all.
  Values relying on a price recorded on another day are marked with "~",
  values missing an asset price with "!".
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to report on, defaults to the configured portfolio")
	f.StringVar(&c.window, "w", string(valuation.Month), "Window of the history")
	f.StringVar(&c.resolution, "r", "", "Resolution (daily, weekly, monthly, quarterly, yearly), defaults to the window's")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	window, err := valuation.ParseWindow(c.window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing window: %v\n", err)
		return subcommands.ExitUsageError
	}
	resolution := valuation.AutoResolution
	if c.resolution != "" {
		resolution, err = date.ParsePeriod(c.resolution)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing resolution: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return withApp(ctx, func(a *app) error {
		portfolio := a.portfolio(c.portfolio)
		points, err := a.engine.HistoricalValues(ctx, portfolio, window, resolution)
		if err != nil {
			return err
		}
		printMarkdown(renderer.HistoryMarkdown(portfolio, window, points))
		return nil
	})
}
