package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitesearch/internal/model"
)

// MarkdownWriter outputs statistics and search results in Markdown format,
// for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the statistics in Markdown format.
func (w *MarkdownWriter) Write(stats *model.Statistics) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Indexing Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sites", strconv.Itoa(stats.Total.Sites)},
			{"Pages", strconv.Itoa(stats.Total.Pages)},
			{"Lemmas", strconv.Itoa(stats.Total.Lemmas)},
			{"Indexing", strconv.FormatBool(stats.Total.Indexing)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, stats)
	w.writeSites(md, stats)

	if stats.Total.Pages > 0 {
		w.writePieChart(md, stats)
	}

	md.HorizontalRule()
	md.PlainTextf("*Generated by sitesearch at %s*", time.Now().Format(time.RFC3339))

	return len(md.String()), md.Build()
}

// writeAlert summarizes the run state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *model.Statistics) {
	failed := 0
	for _, site := range stats.Detailed {
		if site.Status == model.StatusFailed.String() {
			failed++
		}
	}

	switch {
	case stats.Total.Indexing:
		md.Note("Indexing is in progress; counts are still growing.")
	case failed > 0:
		md.Warningf("%d site(s) failed to index.", failed)
	case stats.Total.Sites == 0:
		md.Note("Nothing has been indexed yet.")
	default:
		md.Tip("All sites are indexed.")
	}
	md.PlainText("")
}

// writeSites writes the per-site table.
func (w *MarkdownWriter) writeSites(md *markdown.Markdown, stats *model.Statistics) {
	md.H2("Sites")
	md.PlainText("")

	if len(stats.Detailed) == 0 {
		md.PlainText("No sites indexed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(stats.Detailed))
	for _, site := range stats.Detailed {
		rows = append(rows, []string{
			site.Name,
			site.URL,
			statusLabel(site.Status),
			time.UnixMilli(site.StatusTime).Format("2006-01-02 15:04:05 MST"),
			strconv.Itoa(site.Pages),
			strconv.Itoa(site.Lemmas),
			truncateString(site.Error, 60),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "URL", "Status", "Updated", "Pages", "Lemmas", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of pages per site.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.Statistics) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Site"),
		piechart.WithShowData(true),
	)
	for _, site := range stats.Detailed {
		if site.Pages > 0 {
			chart.LabelAndIntValue(site.Name, uint64(site.Pages)) //nolint:gosec // counts are non-negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteSearch outputs the search results in Markdown format.
func (w *MarkdownWriter) WriteSearch(result *model.SearchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Search Results")
	md.PlainText("")
	md.PlainTextf("%d matching page(s), showing %d.", result.Count, len(result.Items))
	md.PlainText("")

	for i, item := range result.Items {
		md.H3(strconv.Itoa(i+1) + ". " + markdown.Link(item.Title, item.Site+item.URI))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Site", "Relevance"},
			Rows: [][]string{
				{item.SiteName, strconv.FormatFloat(item.Relevance, 'f', 3, 64)},
			},
		})
		md.PlainText("")
		md.PlainText(item.Snippet)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}
