package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesearch/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve starts the HTTP API on the address from the configuration file.

Endpoints:
  GET  /api/statistics
  GET  /api/startIndexing
  GET  /api/stopIndexing
  POST /api/indexPage       (form field: url)
  GET  /api/search          (query, offset, limit, site)
  GET  /metrics             Prometheus metrics
  GET  /healthz

SIGINT or SIGTERM stops any indexing run and shuts the server down gracefully.

Examples:
  sitesearch serve
  sitesearch serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best effort on exit

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.db, a.coordinator, a.resolver, server.WithLogger(a.logger))
	return srv.Serve(ctx, addr)
}

// commandContext returns the command context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
