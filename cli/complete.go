package cli

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion. Currency flags predict the
// default currencies.
func Completion() *complete.Command {
	currencies := predict.Set{"USD", "EUR", "GBP", "ZAR"}
	pair := map[string]complete.Predictor{
		"from": currencies,
		"to":   currencies,
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"serve": {Flags: map[string]complete.Predictor{"addr": predict.Something}},
			"report": {Flags: map[string]complete.Predictor{
				"base":   currencies,
				"trend":  currencies,
				"format": predict.Set{"terminal", "markdown", "json"},
				"style":  predict.Set{"dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night"},
				"width":  predict.Something,
			}},
			"rate": {Flags: pair},
			"history": {Flags: map[string]complete.Predictor{
				"from": currencies,
				"to":   currencies,
				"days": predict.Something,
			}},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.y*ml"),
		},
	}
}
