// Package database provides SQLite-based storage for sitesearch.
//
// SearchDB stores four tables keyed by integer identity:
//   - site: configured sites and their indexing status
//   - page: fetched documents, unique per (site, path)
//   - lemma: per-site lemmas with their page frequency, unique per (site, lemma)
//   - search_index: lemma occurrence counts per page, unique per (lemma, page)
//
// Pages, lemmas and index rows are removed together with their owners through
// ON DELETE CASCADE. The driver is modernc.org/sqlite, a CGO-free SQLite, with
// WAL enabled so searches can read while a crawl writes.
package database
