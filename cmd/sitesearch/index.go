package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesearch/internal/report"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index of every configured site",
		Long: `Index clears the store and crawls every site from the configuration file,
then prints the resulting statistics.

The first Ctrl-C stops crawling; sites not finished by then are marked FAILED
with "indexing stopped by user". Pages already written stay searchable.

Examples:
  sitesearch index
  sitesearch index --json`,
		Args: cobra.NoArgs,
		RunE: runIndexCmd,
	}

	addFormatFlags(cmd)

	return cmd
}

// runIndexCmd executes the index command.
func runIndexCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best effort on exit

	w, err := newReportWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := a.coordinator.Start(ctx); err != nil {
		return err
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info("received shutdown signal, stopping indexing...")
			_ = a.coordinator.Stop() //nolint:errcheck // the run may have just ended
		case <-finished:
		}
	}()

	err = a.coordinator.Wait(context.Background())
	close(finished)
	if err != nil {
		return err
	}
	a.logger.Info("indexing complete", "elapsed", time.Since(start).Round(time.Millisecond))

	stats, err := report.Collect(context.Background(), a.db, false)
	if err != nil {
		return err
	}
	_, err = w.Write(stats)
	return err
}

// NewIndexPageCmd creates the index-page command.
func NewIndexPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-page <url>",
		Short: "Fetch and re-index a single page",
		Long: `Index-page fetches one page of a configured site and replaces its stored
copy in the index. The page must lie under one of the configured site roots.

Examples:
  sitesearch index-page https://example.com/news/42`,
		Args: cobra.ExactArgs(1),
		RunE: runIndexPageCmd,
	}
	return cmd
}

// runIndexPageCmd executes the index-page command.
func runIndexPageCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best effort on exit

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.coordinator.IndexPage(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s\n", args[0])
	return nil
}
