// Package crawler fetches the pages of a configured site.
//
// # Components
//
//   - Fetcher: HTTP client that downloads a page and parses it with goquery
//   - Scope: link filter with a concurrent visited set per site
//   - Crawl and Task: the recursive fork/join crawl of one site
//
// # Crawling
//
// Every accepted link of a page becomes a child Task running on its own
// goroutine. A parent waits for all of its children before flushing. The
// number of fetches in flight is bounded by a weighted semaphore that is
// held only around the fetch and the politeness delay, never while joining,
// so a deep tree cannot starve itself.
//
// Pages accumulate on the way back up the tree and are handed to a Flusher
// once a task holds at least the flush threshold, and always at the root.
// Setting the shared cancellation flag stops new fetches and suppresses
// further flushes; pages already flushed stay in the store.
//
// # Usage
//
//	scope := crawler.NewScope(siteConfig)
//	crawl := crawler.NewCrawl(site, scope, crawler.NewFetcher(), flusher, store,
//		crawler.WithDelay(500*time.Millisecond))
//	err := crawl.Run(ctx)
package crawler
