package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/pricefeed"
	"github.com/google/subcommands"
)

type importPricesCmd struct {
	feed pricefeed.Feed
}

func (*importPricesCmd) Name() string     { return "import-prices" }
func (*importPricesCmd) Synopsis() string { return "import daily prices from a JSON document" }
func (*importPricesCmd) Usage() string {
	return `lv import-prices -a <asset> -c <currency> -date <path> -price <path> [-rows <path>] [-layout <layout>] <file>...

  Imports the daily prices of an asset found in JSON documents, such as
  saved market data API responses. Paths are jsonpath expressions, -date
  and -price are relative to each row.

  Example, for {"data": [{"date": "2024-01-02", "close": 185.64}]}:

    lv import-prices -a AAPL -c USD -rows '$.data[*]' -date '$.date' -price '$.close' aapl.json
`
}

func (c *importPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.feed.Asset, "a", "", "Asset the prices are of")
	f.StringVar(&c.feed.Currency, "c", "", "Currency of the prices")
	f.StringVar(&c.feed.Rows, "rows", "$[*]", "Path to the rows in the document")
	f.StringVar(&c.feed.Date, "date", "$.date", "Path to the date in a row")
	f.StringVar(&c.feed.Price, "price", "$.price", "Path to the price in a row")
	f.StringVar(&c.feed.DateLayout, "layout", "", `Date layout: a Go time layout, "unix" or "unixms", defaults to 2006-01-02`)
}

func (c *importPricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.feed.Asset == "" || f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: -a and at least one file are required")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		c.feed.Logger = a.log
		m := valuation.NewMarketData()
		for _, name := range f.Args() {
			if err := c.importFile(name, m); err != nil {
				return err
			}
		}
		n, err := a.importMarket(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "%d prices of %s imported\n", n, c.feed.Asset)
		return nil
	})
}

func (c *importPricesCmd) importFile(name string, m *valuation.MarketData) error {
	in, err := os.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = c.feed.Import(in, m)
	return err
}
