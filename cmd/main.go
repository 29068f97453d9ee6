package cmd

import "github.com/google/subcommands"

// Commands lists the lv subcommands, in help order.
var Commands = []subcommands.Command{
	&holdingCmd{},
	&lotsCmd{},
	&historyCmd{},
	&valueCmd{},
	&classifyCmd{},
	&esppCmd{},
	&txCmd{},
	&recomputeCmd{},
	&importLedgerCmd{},
	&importPricesCmd{},
	&formatLedgerCmd{},
	&topicCmd{},
}

// groups maps subcommands to their help group.
var groups = map[string]string{
	"holding":       "reports",
	"lots":          "reports",
	"history":       "reports",
	"value":         "reports",
	"classify":      "tax",
	"espp":          "tax",
	"tx":            "ledger",
	"recompute":     "ledger",
	"import-ledger": "ledger",
	"import-prices": "ledger",
	"format-ledger": "ledger",
	"topic":         "",
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, groups[cmd.Name()])
	}
}
