package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitesearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitesearch",
		Short: "Crawl websites and search their pages",
		Long: `sitesearch crawls the websites listed in its configuration file, builds a
morphological index of their pages (Russian and English) and answers ranked
search queries through an HTTP API or the command line.

Run 'sitesearch init' to create a configuration file, then 'sitesearch serve'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: sitesearch.yaml in current or XDG config directory)")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewIndexPageCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
