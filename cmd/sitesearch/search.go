package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/search"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the indexed pages",
		Long: `Search returns the pages containing every meaningful word of the query,
ranked by relevance. Words are matched by their normal form, so "cars" finds
"car" and "машины" finds "машина".

Examples:
  sitesearch search fast cars
  sitesearch search --site https://example.com --limit 5 "новости спорта"
  sitesearch search --json garden`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().IntP("offset", "O", 0, "Number of results to skip")
	cmd.Flags().IntP("limit", "l", config.DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().StringP("site", "s", "", "Restrict the search to one site root URL")
	addFormatFlags(cmd)

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	q := search.Query{Text: strings.Join(args, " ")}

	var err error
	if q.Offset, err = cmd.Flags().GetInt("offset"); err != nil {
		return err
	}
	if q.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if q.Site, err = cmd.Flags().GetString("site"); err != nil {
		return err
	}

	w, err := newReportWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best effort on exit

	result, err := a.resolver.Search(commandContext(cmd), q)
	if err != nil {
		return err
	}
	_, err = w.WriteSearch(result)
	return err
}
