package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/metrics"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/morph"
)

// Query is a search request.
type Query struct {
	// Text is the raw query.
	Text string

	// Offset is the number of ranked results to skip.
	Offset int

	// Limit is the maximum number of results returned. Zero or less means
	// config.DefaultSearchLimit.
	Limit int

	// Site restricts the search to one site root URL. Empty searches every
	// site; an unknown site yields no results.
	Site string
}

// Resolver executes queries.
type Resolver struct {
	db            *database.SearchDB
	lemmatizer    *morph.Lemmatizer
	maxOccurrence float64
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxLemmaOccurrence sets the share of a site's pages above which a
// lemma is ignored.
func WithMaxLemmaOccurrence(p float64) Option {
	return func(r *Resolver) {
		if p > 0 {
			r.maxOccurrence = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(db *database.SearchDB, lemmatizer *morph.Lemmatizer, opts ...Option) *Resolver {
	r := &Resolver{
		db:            db,
		lemmatizer:    lemmatizer,
		maxOccurrence: config.DefaultMaxLemmaOccurrence,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// hit is a matching page with its raw relevance.
type hit struct {
	site      *model.Site
	pageID    int64
	relevance float64
}

// Search returns the ranked pages matching every usable lemma of the query.
func (r *Resolver) Search(ctx context.Context, q Query) (*model.SearchResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	limit := q.Limit
	if limit <= 0 {
		limit = config.DefaultSearchLimit
	}
	offset := max(q.Offset, 0)

	counts := r.lemmatizer.LemmatizeText(q.Text)
	lemmas := make([]string, 0, len(counts))
	for l := range counts {
		lemmas = append(lemmas, l)
	}
	sort.Strings(lemmas)

	sites, err := r.targetSites(ctx, q.Site)
	if err != nil {
		return nil, err
	}

	var hits []hit
	for _, site := range sites {
		siteHits, err := r.searchSite(ctx, site, lemmas)
		if err != nil {
			return nil, err
		}
		hits = append(hits, siteHits...)
	}

	maxRelevance := 1.0
	if len(hits) > 0 {
		maxRelevance = hits[0].relevance
		for _, h := range hits[1:] {
			maxRelevance = max(maxRelevance, h.relevance)
		}
	}
	for i := range hits {
		hits[i].relevance /= maxRelevance
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].relevance != hits[j].relevance {
			return hits[i].relevance > hits[j].relevance
		}
		return hits[i].pageID < hits[j].pageID
	})

	result := &model.SearchResult{Count: len(hits), Items: make([]model.SearchItem, 0)}
	if offset >= len(hits) {
		return result, nil
	}
	end := len(hits)
	if limit < end-offset {
		end = offset + limit
	}
	hits = hits[offset:end]

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.pageID
	}
	pages, err := r.db.PagesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, h := range hits {
		page, ok := pages[h.pageID]
		if !ok {
			// Removed by a concurrent re-index.
			continue
		}
		result.Items = append(result.Items, model.SearchItem{
			Site:      h.site.URL,
			SiteName:  h.site.Name,
			URI:       page.Path,
			Title:     displayTitle(page.Title),
			Snippet:   BuildSnippet(page.Content, lemmas, r.lemmatizer),
			Relevance: h.relevance,
		})
	}

	r.logger.Debug("search finished",
		"query", q.Text,
		"lemmas", len(lemmas),
		"count", result.Count,
		"elapsed", time.Since(start),
	)
	return result, nil
}

func (r *Resolver) targetSites(ctx context.Context, siteURL string) ([]*model.Site, error) {
	if siteURL == "" {
		return r.db.ListSites(ctx)
	}
	site, err := r.db.FindSiteByURL(ctx, config.NormalizeSiteURL(siteURL))
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, nil
	}
	return []*model.Site{site}, nil
}

// searchSite intersects the usable lemmas of one site, rarest first.
func (r *Resolver) searchSite(ctx context.Context, site *model.Site, lemmas []string) ([]hit, error) {
	total, err := r.db.CountPages(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	accepted := make([]*model.Lemma, 0, len(lemmas))
	for _, lemma := range lemmas {
		l, err := r.db.FindLemma(ctx, site.ID, lemma)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		if float64(l.Frequency)/float64(total) > r.maxOccurrence {
			continue
		}
		accepted = append(accepted, l)
	}
	if len(accepted) == 0 {
		return nil, nil
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Frequency < accepted[j].Frequency
	})

	var relevance map[int64]float64
	for i, l := range accepted {
		rows, err := r.db.IndexesByLemma(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load index of lemma %q: %w", l.Lemma, err)
		}
		if i == 0 {
			relevance = make(map[int64]float64, len(rows))
			for _, row := range rows {
				relevance[row.PageID] = row.Rank
			}
			continue
		}

		ranks := make(map[int64]float64, len(rows))
		for _, row := range rows {
			ranks[row.PageID] = row.Rank
		}
		for pageID := range relevance {
			rank, ok := ranks[pageID]
			if !ok {
				delete(relevance, pageID)
				continue
			}
			relevance[pageID] += rank
		}
		if len(relevance) == 0 {
			return nil, nil
		}
	}

	hits := make([]hit, 0, len(relevance))
	for pageID, rel := range relevance {
		hits = append(hits, hit{site: site, pageID: pageID, relevance: rel})
	}
	return hits, nil
}

// displayTitle shortens titles longer than model.MaxTitleLength.
func displayTitle(title string) string {
	if utf8.RuneCountInString(title) <= model.MaxTitleLength {
		return title
	}
	return string([]rune(title)[:model.MaxTitleLength]) + ellipsis
}
