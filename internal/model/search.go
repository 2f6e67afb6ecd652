package model

// SearchItem is one ranked page in a search result.
type SearchItem struct {
	// Site is the site root URL.
	Site string `json:"site"`

	SiteName string `json:"siteName"`

	// URI is the page path relative to Site.
	URI string `json:"uri"`

	Title string `json:"title"`

	// Snippet is an HTML fragment with matched words wrapped in <b>.
	Snippet string `json:"snippet"`

	// Relevance is in (0, 1], normalized by the best page of the query.
	Relevance float64 `json:"relevance"`
}

// SearchResult is a page of search results.
type SearchResult struct {
	// Count is the total number of matching pages before pagination.
	Count int `json:"count"`

	Items []SearchItem `json:"data"`
}

// Statistics is the indexing overview served by the statistics endpoint.
type Statistics struct {
	Total    TotalStatistics      `json:"total"`
	Detailed []DetailedStatistics `json:"detailed"`
}

// TotalStatistics aggregates all sites.
type TotalStatistics struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

// DetailedStatistics describes one configured site.
type DetailedStatistics struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Status string `json:"status"`

	// StatusTime is a Unix timestamp in milliseconds.
	StatusTime int64 `json:"statusTime"`

	Error  string `json:"error,omitempty"`
	Pages  int    `json:"pages"`
	Lemmas int    `json:"lemmas"`
}
