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

type rateCmd struct {
	from string
	to   string

	stdout io.Writer
	stderr io.Writer
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "print the spot rate of a currency pair" }
func (*rateCmd) Usage() string {
	return `rate -from <currency> -to <currency>

  Prints the rate converting one unit of -from into -to and where it comes from:
  live, fallback (static table) or unknown (assumed 1.0).
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "currency to convert from")
	f.StringVar(&c.to, "to", "", "currency to convert to")
}

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to := treasury.ParseCurrency(c.from), treasury.ParseCurrency(c.to)
	if from == "" || to == "" {
		fmt.Fprintln(c.stderr, "both -from and -to must be provided")
		return subcommands.ExitUsageError
	}

	a, err := newApp(c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	q := a.builder.Rates.Rate(ctx, from, to)
	fmt.Fprintf(c.stdout, "%v\t%.4f\t%v", q.Pair, q.Rate, q.Source)
	if !q.AsOf.IsZero() {
		fmt.Fprintf(c.stdout, "\t%v", q.AsOf.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(c.stdout)
	return subcommands.ExitSuccess
}
