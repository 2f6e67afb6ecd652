package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Site is a website listed in the configuration and its indexing state.
// A site row is created when a crawl starts or a single-page index request
// first touches it, and removed only by a full wipe.
type Site struct {
	ID int64 `json:"id"`

	// URL is the site root without a trailing slash.
	URL string `json:"url"`

	// Name is the display name from the configuration.
	Name string `json:"name"`

	Status Status `json:"status"`

	// StatusTime is refreshed on every status change and after every flush,
	// so it doubles as a crawl heartbeat.
	StatusTime time.Time `json:"statusTime"`

	// LastError is empty unless the last crawl failed.
	LastError string `json:"error,omitempty"`
}

// Page is one fetched document of a site.
type Page struct {
	ID     int64 `json:"id"`
	SiteID int64 `json:"siteId"`

	// Path is relative to the site root and always starts with "/".
	// It is unique within a site.
	Path string `json:"path"`

	// Code is the HTTP status code of the fetch.
	Code int `json:"code"`

	Title string `json:"title"`

	// Content is the visible text of the document.
	Content string `json:"content"`
}

// MaxTitleLength is the number of characters kept when a page title has to
// be derived from its text, and the display limit of titles in search results.
const MaxTitleLength = 60

// FallbackTitle returns title, or the first MaxTitleLength characters of
// text when title is blank.
func FallbackTitle(title, text string) string {
	if strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxTitleLength {
		return text
	}
	return string([]rune(text)[:MaxTitleLength])
}

// Lemma is a normalized word form known for a site.
type Lemma struct {
	ID     int64  `json:"id"`
	SiteID int64  `json:"siteId"`
	Lemma  string `json:"lemma"`

	// Frequency is the number of distinct pages of the site containing the lemma.
	Frequency int `json:"frequency"`
}

// Index records how often a lemma occurs on a page.
type Index struct {
	ID      int64 `json:"id"`
	LemmaID int64 `json:"lemmaId"`
	PageID  int64 `json:"pageId"`

	// Rank is the number of occurrences of the lemma on the page.
	Rank float64 `json:"rank"`
}
