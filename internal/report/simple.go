package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitesearch/internal/model"
)

// stripHighlight removes the <b> markup of search snippets.
var stripHighlight = strings.NewReplacer("<b>", "", "</b>", "")

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-site errors and full snippets.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the statistics in human-readable format.
func (w *SimpleWriter) Write(stats *model.Statistics) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "INDEXING STATISTICS")

	sb.WriteString(fmt.Sprintf("Sites:    %d\n", stats.Total.Sites))
	sb.WriteString(fmt.Sprintf("Pages:    %d\n", stats.Total.Pages))
	sb.WriteString(fmt.Sprintf("Lemmas:   %d\n", stats.Total.Lemmas))
	if stats.Total.Indexing {
		sb.WriteString("Indexing: in progress\n")
	} else {
		sb.WriteString("Indexing: idle\n")
	}
	sb.WriteString("\n")

	if len(stats.Detailed) > 0 {
		writeSection(&sb, "SITES")
		for _, site := range stats.Detailed {
			sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n", statusLabel(site.Status), site.Name, site.URL))
			sb.WriteString(fmt.Sprintf("    Pages: %d  Lemmas: %d  Updated: %s\n",
				site.Pages, site.Lemmas,
				time.UnixMilli(site.StatusTime).Format("2006-01-02 15:04:05 MST")))
			if site.Error != "" {
				msg := site.Error
				if !w.verbose {
					msg = truncateString(msg, 60)
				}
				sb.WriteString(fmt.Sprintf("    Error: %s\n", msg))
			}
		}
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteSearch outputs the search results in human-readable format.
func (w *SimpleWriter) WriteSearch(result *model.SearchResult) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "SEARCH RESULTS")
	sb.WriteString(fmt.Sprintf("Found %d page(s)\n\n", result.Count))

	for i, item := range result.Items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.Title))
		sb.WriteString(fmt.Sprintf("   %s%s  [%s, %.3f]\n", item.Site, item.URI, item.SiteName, item.Relevance))
		snippet := stripHighlight.Replace(item.Snippet)
		if !w.verbose {
			snippet = truncateString(snippet, 100)
		}
		sb.WriteString(fmt.Sprintf("   %s\n\n", snippet))
	}

	return w.output.Write([]byte(sb.String()))
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// statusLabel turns a stored status such as "INDEXED" into "Indexed".
func statusLabel(status string) string {
	return cases.Title(language.English).String(strings.ToLower(status))
}

// truncateString truncates a string to the specified rune length,
// adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
