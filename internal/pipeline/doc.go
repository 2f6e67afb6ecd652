// Package pipeline runs indexing: full crawls of every configured site and
// single-page re-indexing.
//
// Coordinator owns the indexing lifecycle. Start wipes the store and fans out
// one goroutine per site with errgroup; the crawl of each site shares a fetch
// semaphore and a cancellation flag that Stop sets. Only one full run exists
// at a time.
//
// Single-page indexing is a Pipeline of Steps executed in order over a
// PageJob: resolve the site, fetch the page, index it. The first failing
// step ends the run.
package pipeline
