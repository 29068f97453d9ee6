package main

import (
	"slices"
	"testing"

	"github.com/etnz/valuation/cmd"
)

func TestCompletion(t *testing.T) {
	root := completion(cmd.Commands)

	for _, c := range cmd.Commands {
		if _, ok := root.Sub[c.Name()]; !ok {
			t.Errorf("no completion for subcommand %q", c.Name())
		}
	}
	if got := root.Sub["help"].Args.Predict(""); !slices.Contains(got, "history") {
		t.Errorf("help completes %v, want it to include history", got)
	}

	history := root.Sub["history"]
	if got := history.Flags["w"].Predict(""); !slices.Equal(got, []string{"today", "week", "month", "quarter", "year", "all"}) {
		t.Errorf("history -w completes %v", got)
	}
	if _, ok := history.Flags["p"]; !ok {
		t.Errorf("history -p is not completed")
	}
	if got := root.Sub["holding"].Flags["all"].Predict(""); len(got) != 0 {
		t.Errorf("holding -all is a bool flag, it completes %v", got)
	}
	if got := root.Sub["topic"].Args.Predict(""); !slices.Contains(got, "ledger") {
		t.Errorf("topic completes %v, want it to include ledger", got)
	}
	if root.Sub["import-prices"].Args == nil {
		t.Errorf("import-prices does not complete its file arguments")
	}
}
