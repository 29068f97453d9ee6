package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/renderer"
	"github.com/etnz/valuation/tax"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type esppCmd struct {
	grant    string
	purchase string
	sell     string
	bargain  string
}

func (*esppCmd) Name() string     { return "espp" }
func (*esppCmd) Synopsis() string { return "check whether an ESPP sale is a disqualifying disposition" }
func (*esppCmd) Usage() string {
	return `lv espp -grant <date> -purchase <date> [-sell <date>] [-bargain <amount>]

  Evaluates the sale of ESPP shares against the two holding requirements:
  more than two years from the offering grant and more than one year from
  the purchase.
`
}

func (c *esppCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.grant, "grant", "", "Offering grant date")
	f.StringVar(&c.purchase, "purchase", "", "Purchase date")
	f.StringVar(&c.sell, "sell", date.Today().String(), "Sale date")
	f.StringVar(&c.bargain, "bargain", "0", "Bargain element of the purchase, taxed as ordinary income on a disqualifying sale")
}

func (c *esppCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	bargain, err := decimal.NewFromString(c.bargain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing bargain element: %v\n", err)
		return subcommands.ExitUsageError
	}
	status, err := tax.CheckDispositionStatusString(c.grant, c.purchase, c.sell, bargain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	printMarkdown(renderer.DispositionMarkdown(status))
	return subcommands.ExitSuccess
}
