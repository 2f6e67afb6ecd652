package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/database"
	applog "github.com/nao1215/sitesearch/internal/log"
	"github.com/nao1215/sitesearch/internal/morph"
	"github.com/nao1215/sitesearch/internal/pipeline"
	"github.com/nao1215/sitesearch/internal/report"
	"github.com/nao1215/sitesearch/internal/search"
)

// app holds the components shared by the commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	db          *database.SearchDB
	coordinator *pipeline.Coordinator
	resolver    *search.Resolver

	closeLog func() error
}

// newApp loads the configuration and opens the index store.
// Long-running commands log at Info through the configured sinks;
// one-shot commands only log warnings to stderr unless --verbose is given.
func newApp(cmd *cobra.Command, longRunning bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, closeLog: func() error { return nil }}
	if longRunning {
		a.logger, a.closeLog = applog.New(applog.Options{
			Writer:  cmd.ErrOrStderr(),
			Verbose: cfg.Verbose,
			JSON:    cfg.Log.JSON,
			File:    cfg.Log.File,
		})
	} else {
		a.logger = applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(a.logger)

	dbDir := cfg.Database.Dir
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	a.db, err = database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		_ = a.closeLog() //nolint:errcheck // reporting the open failure
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.logger.Debug("database opened", "path", a.db.Path())

	lemmatizer := morph.NewLemmatizer()
	a.coordinator = pipeline.NewCoordinator(cfg, a.db,
		pipeline.WithLogger(a.logger),
		pipeline.WithLemmatizer(lemmatizer),
	)
	a.resolver = search.NewResolver(a.db, lemmatizer,
		search.WithMaxLemmaOccurrence(cfg.Indexing.MaxLemmaOccurrencePercentage),
		search.WithLogger(a.logger),
	)
	return a, nil
}

// Close stops any indexing run and releases the store and log file.
func (a *app) Close() error {
	return errors.Join(a.coordinator.Close(), a.db.Close(), a.closeLog())
}

// loadConfig finds, loads and validates the configuration file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && path == "" {
			return nil, fmt.Errorf("%w (run 'sitesearch init' to create %s)", err, config.DefaultConfigFile)
		}
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error in %s: %w", cfg.ConfigFilePath, err)
	}
	return cfg, nil
}

// getVerboseFlag reads the inherited --verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// addFormatFlags adds the --json and --markdown output flags.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// newReportWriter picks the writer selected by the format flags.
func newReportWriter(cmd *cobra.Command, out io.Writer) (report.Writer, error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	switch {
	case jsonOut:
		return report.NewJSONWriter(out, report.WithPrettyPrint()), nil
	case markdownOut:
		return report.NewMarkdownWriter(out), nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd))), nil
	}
}

// openOutput returns the file named by --output, or the command's stdout.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, err := cmd.Flags().GetString("output")
	if err != nil || path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil //nolint:nilerr // flag is optional
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
