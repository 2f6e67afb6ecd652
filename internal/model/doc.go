// Package model defines the core data structures used throughout sitesearch.
//
// This package contains the following main types:
//   - Site, Page, Lemma, Index: the stored index, keyed by integer identity
//     with explicit foreign-key fields instead of back-pointers
//   - SearchResult and SearchItem: the output of a query
//   - Statistics: the indexing overview
//
// Models live in their own package so the crawler, indexer, search and
// database packages can share them without import cycles.
package model
