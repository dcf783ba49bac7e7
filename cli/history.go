package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/subcommands"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
)

type historyCmd struct {
	from string
	to   string
	days int

	stdout io.Writer
	stderr io.Writer
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the daily rates of a currency pair" }
func (*historyCmd) Usage() string {
	return `history -from <currency> -to <currency> [-days <n>]

  Prints one line per day: the date and the closing rate.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "currency to convert from")
	f.StringVar(&c.to, "to", "", "currency to convert to")
	f.IntVar(&c.days, "days", 0, "trailing window in days, defaults to dashboard.history_days")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to := treasury.ParseCurrency(c.from), treasury.ParseCurrency(c.to)
	if from == "" || to == "" {
		fmt.Fprintln(c.stderr, "both -from and -to must be provided")
		return subcommands.ExitUsageError
	}
	if c.days < 0 {
		fmt.Fprintln(c.stderr, "-days must be positive")
		return subcommands.ExitUsageError
	}

	a, err := newApp(c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	days := c.days
	if days == 0 {
		days = a.builder.HistoryDays
	}

	series := a.builder.Rates.History(ctx, from, to, days)
	if series.Len() == 0 {
		fmt.Fprintln(c.stdout, "Historical data not available")
		return subcommands.ExitSuccess
	}
	for on, r := range series.Points() {
		fmt.Fprintf(c.stdout, "%v\t%.4f\n", on.Format(time.DateOnly), r)
	}
	return subcommands.ExitSuccess
}
