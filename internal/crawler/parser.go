package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the part of a fetched page the indexer needs.
type Document struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Title is the trimmed <title> text, possibly empty.
	Title string

	// Text is the visible text of the whole document with whitespace
	// collapsed to single spaces.
	Text string

	// Links are the absolute targets of every <a href> in document order.
	Links []string
}

// ParseDocument parses HTML and extracts the title, visible text and links.
// Relative links are resolved against base.
func ParseDocument(base *url.URL, content io.Reader) (*Document, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	result := &Document{
		URL:   base.String(),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveURL(base, href); resolved != "" {
			result.Links = append(result.Links, resolved)
		}
	})

	// Script and style bodies are text nodes to the parser but never
	// visible on the page.
	doc.Find("script, style, noscript, template").Remove()
	result.Text = strings.Join(strings.Fields(doc.Text()), " ")

	return result, nil
}

// resolveURL resolves a link against the page URL.
// Links that cannot lead to a page (javascript:, mailto:, bare "#") resolve
// to the empty string.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
