package pipeline

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("indexing is already running")

	// ErrNotRunning is returned by Stop when no run is in progress.
	ErrNotRunning = errors.New("indexing is not running")

	// ErrOutsideSites is returned when a page URL is not under any configured site.
	ErrOutsideSites = errors.New("page is outside the sites listed in the configuration file")

	// ErrSiteIndexing is returned when a page is submitted for a site that a
	// full run is crawling.
	ErrSiteIndexing = errors.New("site is currently being indexed")

	// ErrStoppedByUser is the error recorded on sites whose crawl was stopped.
	ErrStoppedByUser = errors.New("indexing stopped by user")
)
