// Package cli implements the treasury command line: the dashboard server and one-shot reports.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/config"
	"github.com/Anne71-cloud/treasury-dashboard/dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/rates"
	"github.com/Anne71-cloud/treasury-dashboard/yahoo"
)

// as a CLI application it is short lived, global flags are fine.

var configPath = flag.String("config", "", "path to the YAML config file, defaults to $"+config.PathEnv)

// Register the subcommands. Results are written to stdout, errors and logs to stderr.
func Register(c *subcommands.Commander, stdout, stderr io.Writer) {
	c.Register(&serveCmd{stderr: stderr}, "server")

	c.Register(&reportCmd{stdout: stdout, stderr: stderr}, "reports")
	c.Register(&rateCmd{stdout: stdout, stderr: stderr}, "reports")
	c.Register(&historyCmd{stdout: stdout, stderr: stderr}, "reports")
}

// app the services shared by all subcommands
type app struct {
	cfg      *config.Config
	logger   log.Logger
	registry *prometheus.Registry
	builder  *dashboard.Builder
}

// newApp loads the configuration and wires the services, logging to w.
func newApp(w io.Writer) (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	return wire(cfg, w)
}

func wire(cfg *config.Config, w io.Writer) (*app, error) {
	logger, err := NewLogger(cfg.Log, w)
	if err != nil {
		return nil, err
	}
	logger = log.With(logger, "env", cfg.Env)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	source := yahoo.NewService(cfg.Quotes.BaseURL, cfg.Quotes.Timeout)
	source = yahoo.NewLoggingService(level.Debug(log.With(logger, "component", "yahoo_rest")), source)
	source = yahoo.NewCachingService(cfg.Quotes.CacheTTL, level.Debug(log.With(logger, "component", "yahoo_cache")), source)

	var fallback rates.Table
	if len(cfg.Dashboard.FallbackRates) > 0 {
		fallback = rates.Table(cfg.Dashboard.FallbackRates)
	}
	rs := rates.NewService(source, fallback, log.With(logger, "component", "rates"))
	rs = rates.NewLoggingService(level.Debug(log.With(logger, "component", "rates")), rs)
	rs = rates.NewInstrumentingService(registry, rs)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		builder: &dashboard.Builder{
			Rates:       rs,
			Currencies:  cfg.Dashboard.Currencies,
			HistoryDays: cfg.Dashboard.HistoryDays,
		},
	}, nil
}

// request the dashboard request of the configured entities
func (a *app) request(base, trend string) dashboard.Request {
	r := dashboard.Request{
		Base:      a.cfg.Dashboard.Base,
		Trend:     treasury.ParseCurrency(trend),
		Positions: a.cfg.Dashboard.Entities,
	}
	if base != "" {
		r.Base = treasury.ParseCurrency(base)
	}
	return r
}

// NewLogger creates the logfmt or JSON logger filtered at the configured level.
func NewLogger(cfg config.Log, w io.Writer) (log.Logger, error) {
	w = log.NewSyncWriter(w)

	var logger log.Logger
	switch cfg.Format {
	case "json":
		logger = log.NewJSONLogger(w)
	case "logfmt", "":
		logger = log.NewLogfmtLogger(w)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var option level.Option
	switch cfg.Level {
	case "debug":
		option = level.AllowDebug()
	case "info", "":
		option = level.AllowInfo()
	case "warn":
		option = level.AllowWarn()
	case "error":
		option = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	logger = level.NewFilter(logger, option)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller), nil
}
