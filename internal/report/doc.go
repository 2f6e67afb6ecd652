// Package report collects indexing statistics and renders them, together
// with search results, for terminals, documents and tools.
//
// Writers:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: JSON for tool integration, the same shape the HTTP API serves
//   - MarkdownWriter: Markdown with tables and a Mermaid pie chart
//
// Writers implement the Writer interface, so they can be composed with
// MultiWriter to emit several formats at once.
package report
