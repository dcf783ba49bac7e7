package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	nhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/subcommands"

	"github.com/Anne71-cloud/treasury-dashboard/http"
)

type serveCmd struct {
	addr   string
	stderr io.Writer
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [-addr <host:port>]

  Serves the HTML dashboard, the JSON API and the metrics until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, overrides http_server.address")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	addr := a.cfg.HTTPServer.Address
	if c.addr != "" {
		addr = c.addr
	}

	server := http.NewServer(a.builder, a.request("", ""), a.registry, log.With(a.logger, "component", "http"))
	srv := &nhttp.Server{
		Addr:         addr,
		Handler:      http.NewLoggingHandler(log.With(a.logger, "component", "access"), server),
		ReadTimeout:  a.cfg.HTTPServer.ReadTimeout,
		WriteTimeout: a.cfg.HTTPServer.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		level.Info(a.logger).Log("msg", "listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		level.Error(a.logger).Log("msg", "server stopped", "err", err)
		return subcommands.ExitFailure
	case <-ctx.Done():
	}

	level.Info(a.logger).Log("msg", "shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, nhttp.ErrServerClosed) {
		level.Error(a.logger).Log("msg", "shutdown", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
