// Package search answers full-text queries against the lemma index.
//
// A query is lemmatized with the same Lemmatizer used for indexing. For
// each target site, lemmas unknown to the site or present on more than the
// configured share of its pages are dropped; the remaining lemmas are
// intersected rarest first, so a page must contain every one of them. The
// relevance of a page is the sum of its ranks for those lemmas, normalized
// by the highest relevance across all sites.
package search
