package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/sitesearch/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show indexing statistics",
		Long: `Stats prints the number of sites, pages and lemmas in the index, with the
status and last error of every site.

Examples:
  sitesearch stats
  sitesearch stats --markdown -o report/stats.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	addFormatFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write statistics to specified file path (creates directories if needed)")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best effort on exit

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // write errors are reported by Write

	w, err := newReportWriter(cmd, out)
	if err != nil {
		return err
	}

	// A separate process may be indexing; this one never is.
	stats, err := report.Collect(commandContext(cmd), a.db, false)
	if err != nil {
		return err
	}
	_, err = w.Write(stats)
	return err
}
