package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/Anne71-cloud/treasury-dashboard/render"
)

type reportCmd struct {
	base   string
	trend  string
	format string
	style  string
	width  int

	stdout io.Writer
	stderr io.Writer
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the dashboard of the configured entities" }
func (*reportCmd) Usage() string {
	return `report [-base <currency>] [-trend <currency>] [-format terminal|markdown|json] [-style <style>]

  Prints liquidity, rates, exposure and the rate trend of the configured entities.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "", "base currency, defaults to dashboard.base")
	f.StringVar(&c.trend, "trend", "", "currency whose rate trend is shown, defaults to the first non-base currency")
	f.StringVar(&c.format, "format", "terminal", "output format: terminal, markdown or json")
	f.StringVar(&c.style, "style", "dark", "terminal style: dark, light, notty, ascii, ...")
	f.IntVar(&c.width, "width", 100, "terminal word wrap width")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "terminal", "markdown", "json":
	default:
		fmt.Fprintf(c.stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	a, err := newApp(c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	d, err := a.builder.Build(ctx, a.request(c.base, c.trend))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error building dashboard: %v\n", err)
		return subcommands.ExitUsageError
	}

	switch c.format {
	case "markdown":
		fmt.Fprint(c.stdout, render.Markdown(d))
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			fmt.Fprintf(c.stderr, "Error encoding dashboard: %v\n", err)
			return subcommands.ExitFailure
		}
	default:
		out, err := render.Terminal(d, c.style, c.width)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error rendering dashboard: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprint(c.stdout, out)
	}
	return subcommands.ExitSuccess
}
