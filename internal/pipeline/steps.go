package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/indexer"
	"github.com/nao1215/sitesearch/internal/model"
)

// ResolveSiteStep finds the configured site of the job URL and its stored
// row, creating the row as INDEXED when the site has never been seen.
type ResolveSiteStep struct {
	cfg *config.Config
	db  *database.SearchDB

	// running reports whether a full run is in progress. Sites without a row
	// are about to be created by it.
	running func() bool
}

// NewResolveSiteStep creates a ResolveSiteStep.
func NewResolveSiteStep(cfg *config.Config, db *database.SearchDB, running func() bool) *ResolveSiteStep {
	return &ResolveSiteStep{cfg: cfg, db: db, running: running}
}

// Name implements Step.
func (s *ResolveSiteStep) Name() string {
	return "resolve-site"
}

// Do implements Step.
func (s *ResolveSiteStep) Do(ctx context.Context, job *PageJob) error {
	sc, ok := s.cfg.SiteFor(job.URL)
	if !ok {
		return ErrOutsideSites
	}
	job.SiteConfig = sc

	site, err := s.db.FindSiteByURL(ctx, sc.URL)
	if err != nil {
		return err
	}
	if site != nil {
		if site.Status == model.StatusIndexing {
			return ErrSiteIndexing
		}
		job.Site = site
		return nil
	}

	if s.running != nil && s.running() {
		return ErrSiteIndexing
	}
	site = &model.Site{
		URL:        sc.URL,
		Name:       sc.Name,
		Status:     model.StatusIndexed,
		StatusTime: time.Now(),
	}
	if err := s.db.UpsertSite(ctx, site); err != nil {
		return err
	}
	job.Site = site
	return nil
}

// FetchStep downloads the job URL.
type FetchStep struct {
	fetcher crawler.PageFetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher crawler.PageFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name implements Step.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, job *PageJob) error {
	doc, err := s.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		if errors.Is(err, crawler.ErrFetch) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", crawler.ErrFetch, job.URL, err)
	}
	job.Document = doc
	return nil
}

// IndexStep replaces the stored page and indexes it.
type IndexStep struct {
	builder *indexer.Builder
}

// NewIndexStep creates an IndexStep.
func NewIndexStep(builder *indexer.Builder) *IndexStep {
	return &IndexStep{builder: builder}
}

// Name implements Step.
func (s *IndexStep) Name() string {
	return "index"
}

// Do implements Step.
func (s *IndexStep) Do(ctx context.Context, job *PageJob) error {
	doc := job.Document
	page := &model.Page{
		SiteID:  job.Site.ID,
		Path:    crawler.PathFromRoot(job.SiteConfig.URL, job.URL),
		Code:    doc.StatusCode,
		Title:   model.FallbackTitle(doc.Title, doc.Text),
		Content: doc.Text,
	}
	if err := s.builder.IndexPage(ctx, job.Site, page); err != nil {
		return err
	}
	job.Page = page
	return nil
}
