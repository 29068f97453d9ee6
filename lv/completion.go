package main

import (
	"flag"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors are the predictors of flags shared by several subcommands.
var flagPredictors = map[string]complete.Predictor{
	"w":      windows(),
	"r":      predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"},
	"f":      predict.Files("*.jsonl"),
	"layout": predict.Set{"unix", "unixms", "2006-01-02"},
}

func windows() predict.Set {
	var set predict.Set
	for _, w := range valuation.Windows {
		set = append(set, string(w))
	}
	return set
}

// completion returns the shell completion of lv, derived from the flags of
// its subcommands. Install it with COMP_INSTALL=1 lv.
func completion(commands []subcommands.Command) *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{
			"help":     {Args: predictNames(commands)},
			"flags":    {},
			"commands": {},
		},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
			"format": predict.Set{"term", "markdown", "html"},
		},
	}
	for _, c := range commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		f.VisitAll(func(fl *flag.Flag) {
			sub.Flags[fl.Name] = predictFlag(fl)
		})
		root.Sub[c.Name()] = sub
	}
	if sub, ok := root.Sub["import-prices"]; ok {
		sub.Args = predict.Files("*.json")
	}
	if sub, ok := root.Sub["topic"]; ok {
		topics, _ := docs.GetAllTopics()
		sub.Args = predict.Set(topics)
	}
	return root
}

func predictFlag(fl *flag.Flag) complete.Predictor {
	if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	if p, ok := flagPredictors[fl.Name]; ok {
		return p
	}
	return predict.Something
}

func predictNames(commands []subcommands.Command) predict.Set {
	var set predict.Set
	for _, c := range commands {
		set = append(set, c.Name())
	}
	return set
}
