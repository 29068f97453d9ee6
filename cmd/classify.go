package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
	"github.com/google/subcommands"
)

type classifyCmd struct {
	purchase  string
	reference string
}

func (*classifyCmd) Name() string     { return "classify" }
func (*classifyCmd) Synopsis() string { return "classify a holding period as short or long term" }
func (*classifyCmd) Usage() string {
	return `lv classify -purchase <date> [-d <date>]

  Tells whether shares bought on the purchase date are held short or long
  term on a reference date, and when they become long term.
`
}

func (c *classifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.purchase, "purchase", "", "Purchase date of the shares")
	f.StringVar(&c.reference, "d", date.Today().String(), "Reference date, usually the sale date")
}

func (c *classifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := tax.ClassifyString(c.purchase, c.reference)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	purchase := date.MustParse(c.purchase)
	fmt.Fprintf(output, "%s-term, long-term from %s\n", period, tax.LongTermDate(purchase))
	return subcommands.ExitSuccess
}
