package report

import (
	"io"

	"github.com/nao1215/sitesearch/internal/model"
)

// Writer renders statistics and search results.
type Writer interface {
	// Write outputs indexing statistics.
	// Returns the number of bytes written and any error encountered.
	Write(stats *model.Statistics) (int, error)

	// WriteSearch outputs one page of search results.
	WriteSearch(result *model.SearchResult) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the statistics to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(stats *model.Statistics) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(stats)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSearch outputs the search results to all configured Writers.
func (m *MultiWriter) WriteSearch(result *model.SearchResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSearch(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
