// Package indexer turns crawled pages into lemma and index rows.
//
// The bulk path (Builder.SavePages) is used by a running crawl. Many crawl
// tasks of one site flush concurrently, so lemma frequencies are kept in a
// per-site LemmaCache and every read-modify-write of the cache together with
// the write to the store happens under the cache's mutex. A batch is
// written in one store transaction and its frequency increments reach the
// cache only after that write succeeds. Lemmatization is pure and runs
// outside the lock.
//
// The single-page path (Builder.IndexPage) re-indexes one URL on request.
// It replaces the stored page and increments lemma frequencies in SQL, so it
// needs no in-memory state.
package indexer
