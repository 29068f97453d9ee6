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

type valueCmd struct {
	portfolio string
	date      string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "display the value of a portfolio on a date" }
func (*valueCmd) Usage() string {
	return `lv value [-p <portfolio>] [-d <date>]

  Displays the value of a portfolio on a date, asset by asset, with the day
  each price was recorded on.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to report on, defaults to the configured portfolio")
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the valuation")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		portfolio := a.portfolio(c.portfolio)
		p, ok, err := a.engine.PointAt(ctx, portfolio, on)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("portfolio %q has no transaction", portfolio)
		}
		printMarkdown(renderer.ValueMarkdown(portfolio, p))
		return nil
	})
}
