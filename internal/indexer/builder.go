package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/morph"
)

// LemmaCache holds the lemma rows of one site during a crawl.
// The mutex guards the map and serializes persisting.
type LemmaCache struct {
	mu     sync.Mutex
	lemmas map[string]*model.Lemma
}

// NewLemmaCache creates an empty cache.
func NewLemmaCache() *LemmaCache {
	return &LemmaCache{lemmas: make(map[string]*model.Lemma)}
}

// Len returns the number of cached lemmas.
func (c *LemmaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lemmas)
}

// Store persists indexed pages. Each call is atomic.
type Store interface {
	SaveBatch(ctx context.Context, pages []*model.Page, lemmas []*model.Lemma, ranks []map[string]int) error
	ReplaceIndexedPage(ctx context.Context, page *model.Page, ranks map[string]int) error
}

// Builder writes pages, lemmas and index rows to the store.
type Builder struct {
	store      Store
	lemmatizer *morph.Lemmatizer
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder.
func NewBuilder(store Store, lemmatizer *morph.Lemmatizer, opts ...Option) *Builder {
	b := &Builder{
		store:      store,
		lemmatizer: lemmatizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SavePages stores a batch of crawled pages of site and indexes them.
// New lemmas start at frequency zero; each page containing a lemma adds one.
// The lemma rows touched by the batch are written with their absolute
// frequency, together with one index row per (lemma, page) with the in-page
// count as rank. The cache is updated only after the batch is stored, so a
// failed batch leaves both the store and the cache unchanged.
func (b *Builder) SavePages(ctx context.Context, site *model.Site, cache *LemmaCache, pages []*model.Page) error {
	if len(pages) == 0 {
		return nil
	}

	ranks := make([]map[string]int, len(pages))
	for i, p := range pages {
		ranks[i] = b.lemmatizer.LemmatizeText(p.Content)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	staged := make(map[string]*model.Lemma)
	for _, pageRanks := range ranks {
		for lemma := range pageRanks {
			l, ok := staged[lemma]
			if !ok {
				l = &model.Lemma{SiteID: site.ID, Lemma: lemma}
				if cached, ok := cache.lemmas[lemma]; ok {
					*l = *cached
				}
				staged[lemma] = l
			}
			l.Frequency++
		}
	}

	if err := b.store.SaveBatch(ctx, pages, sortedLemmas(staged), ranks); err != nil {
		return fmt.Errorf("failed to index pages of %s: %w", site.URL, err)
	}
	rows := 0
	for _, pageRanks := range ranks {
		rows += len(pageRanks)
	}
	for lemma, l := range staged {
		cache.lemmas[lemma] = l
	}

	b.logger.Debug("pages indexed",
		"site", site.URL,
		"pages", len(pages),
		"lemmas", len(staged),
		"index_rows", rows,
	)
	return nil
}

// IndexPage stores page, replacing any page of the site with the same path,
// and indexes it. Lemma frequencies are incremented in the store.
func (b *Builder) IndexPage(ctx context.Context, site *model.Site, page *model.Page) error {
	page.SiteID = site.ID
	ranks := b.lemmatizer.LemmatizeText(page.Content)
	if err := b.store.ReplaceIndexedPage(ctx, page, ranks); err != nil {
		return fmt.Errorf("failed to index page %s%s: %w", site.URL, page.Path, err)
	}

	b.logger.Debug("page indexed", "site", site.URL, "path", page.Path, "lemmas", len(ranks))
	return nil
}

// SiteFlusher feeds the pages of one site's crawl into Builder.SavePages.
type SiteFlusher struct {
	builder *Builder
	site    *model.Site
	cache   *LemmaCache
}

// Flusher returns a SiteFlusher for site backed by cache.
func (b *Builder) Flusher(site *model.Site, cache *LemmaCache) *SiteFlusher {
	return &SiteFlusher{builder: b, site: site, cache: cache}
}

// Flush saves and indexes pages.
func (f *SiteFlusher) Flush(ctx context.Context, pages []*model.Page) error {
	return f.builder.SavePages(ctx, f.site, f.cache, pages)
}

func sortedLemmas(m map[string]*model.Lemma) []*model.Lemma {
	result := make([]*model.Lemma, 0, len(m))
	for _, l := range m {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Lemma < result[j].Lemma
	})
	return result
}
