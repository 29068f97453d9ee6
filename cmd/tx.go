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

type txCmd struct {
	portfolio string
	asset     string
	date      string
	head      int
	tail      int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of a portfolio" }
func (*txCmd) Usage() string {
	return `lv tx [-p <portfolio>] [-a <asset>] [-d <date>] [-head <n>] [-tail <n>]

  Lists the transactions of a portfolio in replay order.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to list, defaults to the configured portfolio")
	f.StringVar(&c.asset, "a", "", "Only list the transactions of this asset")
	f.StringVar(&c.date, "d", "", "Only list the transactions on or before this date")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	var until date.Date
	if c.date != "" {
		var err error
		if until, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	return withApp(ctx, func(a *app) error {
		portfolio := a.portfolio(c.portfolio)
		var txs []valuation.Transaction
		var err error
		if c.asset != "" {
			txs, err = a.transactions().AssetTransactions(ctx, portfolio, c.asset)
		} else {
			txs, err = a.transactions().PortfolioTransactions(ctx, portfolio)
		}
		if err != nil {
			return err
		}
		if !until.IsZero() {
			var keep []valuation.Transaction
			for _, tx := range txs {
				if valuation.OnOrBefore(until)(tx) {
					keep = append(keep, tx)
				}
			}
			txs = keep
		}
		if c.head > 0 && len(txs) > c.head {
			txs = txs[:c.head]
		}
		if c.tail > 0 && len(txs) > c.tail {
			txs = txs[len(txs)-c.tail:]
		}
		printMarkdown(renderer.TransactionsMarkdown(fmt.Sprintf("Transactions of %s", portfolio), txs))
		return nil
	})
}
