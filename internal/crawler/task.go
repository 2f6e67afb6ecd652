package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitesearch/internal/metrics"
	"github.com/nao1215/sitesearch/internal/model"
)

// ErrRootUnavailable is returned by the root task when the site's main page
// cannot be fetched. The site is marked FAILED with this message.
var ErrRootUnavailable = errors.New("indexing error: site main page is unavailable")

// Flusher persists and indexes a batch of crawled pages of one site.
type Flusher interface {
	Flush(ctx context.Context, pages []*model.Page) error
}

// SiteStore records site status changes made by a crawl.
type SiteStore interface {
	UpdateSiteStatus(ctx context.Context, siteID int64, status model.Status, lastError string, at time.Time) error
	TouchSite(ctx context.Context, siteID int64, at time.Time) error
}

// Crawl is the state shared by every task crawling one site.
type Crawl struct {
	// site is the stored site row. Its ID is set.
	site *model.Site

	// scope filters links and holds the visited set.
	scope *Scope

	fetcher PageFetcher
	flusher Flusher
	store   SiteStore

	// cancel is shared with the coordinator. Once set, no new fetches
	// start and no further batches are flushed.
	cancel *atomic.Bool

	// sem bounds the number of fetches in flight. It may be shared by the
	// crawls of several sites.
	sem *semaphore.Weighted

	// delay is the politeness pause after every successful fetch. The fetch
	// slot stays taken while sleeping.
	delay time.Duration

	// threshold is the number of accumulated pages that triggers a flush.
	threshold int

	logger *slog.Logger
}

// CrawlOption configures a Crawl.
type CrawlOption func(*Crawl)

// WithDelay sets the politeness delay.
func WithDelay(d time.Duration) CrawlOption {
	return func(c *Crawl) {
		c.delay = d
	}
}

// WithThreshold sets the flush threshold.
func WithThreshold(n int) CrawlOption {
	return func(c *Crawl) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithCancelFlag shares a cancellation flag with the crawl.
func WithCancelFlag(flag *atomic.Bool) CrawlOption {
	return func(c *Crawl) {
		c.cancel = flag
	}
}

// WithSemaphore shares a fetch semaphore with the crawl.
func WithSemaphore(sem *semaphore.Weighted) CrawlOption {
	return func(c *Crawl) {
		c.sem = sem
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CrawlOption {
	return func(c *Crawl) {
		c.logger = logger
	}
}

// NewCrawl creates the shared state for crawling one site.
func NewCrawl(site *model.Site, scope *Scope, fetcher PageFetcher, flusher Flusher, store SiteStore, opts ...CrawlOption) *Crawl {
	c := &Crawl{
		site:      site,
		scope:     scope,
		fetcher:   fetcher,
		flusher:   flusher,
		store:     store,
		cancel:    &atomic.Bool{},
		sem:       semaphore.NewWeighted(8),
		delay:     500 * time.Millisecond,
		threshold: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the depth-0 task for the site's main page.
func (c *Crawl) Root() *Task {
	return &Task{crawl: c, url: c.site.URL, depth: 0}
}

// Run crawls the whole site and returns once every task has finished.
func (c *Crawl) Run(ctx context.Context) error {
	_, err := c.Root().Run(ctx)
	return err
}

func (c *Crawl) cancelled(ctx context.Context) bool {
	return c.cancel.Load() || ctx.Err() != nil
}

// fetch takes a fetch slot, downloads the page and sleeps the politeness
// delay before giving the slot back.
func (c *Crawl) fetch(ctx context.Context, pageURL string) (*Document, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	doc, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(c.site.Name).Inc()
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues(c.site.Name).Inc()

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	return doc, nil
}

// flush hands pages to the flusher and refreshes the site's status time.
func (c *Crawl) flush(ctx context.Context, pages []*model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	start := time.Now()
	if err := c.flusher.Flush(ctx, pages); err != nil {
		return err
	}
	metrics.FlushDuration.WithLabelValues(c.site.Name).Observe(time.Since(start).Seconds())

	if err := c.store.TouchSite(ctx, c.site.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to refresh site status time: %w", err)
	}
	return nil
}

// Task crawls one URL of a site and, recursively, every new link on it.
type Task struct {
	crawl *Crawl
	url   string
	depth int
}

// Run fetches the task's page, forks a child task per accepted link and
// joins them. Pages are flushed when the accumulated count reaches the
// threshold and always at depth 0 unless the crawl was cancelled. The
// returned pages are the ones not yet flushed.
//
// Child fetch and flush failures are logged and yield an empty result, so
// in practice only the root task returns errors. Any error a child does
// return is passed up by its parent after all siblings have joined.
func (t *Task) Run(ctx context.Context) ([]*model.Page, error) {
	c := t.crawl
	if c.cancelled(ctx) {
		return nil, nil
	}

	doc, err := c.fetch(ctx, t.url)
	if err != nil {
		if ctx.Err() != nil {
			if t.depth == 0 {
				return nil, ctx.Err()
			}
			return nil, nil
		}
		c.logger.Debug("page fetch failed", "site", c.site.URL, "url", t.url, "error", err)
		if t.depth == 0 {
			return nil, t.rootUnavailable(ctx, err)
		}
		return nil, nil
	}

	pages := []*model.Page{t.newPage(doc)}
	if c.cancelled(ctx) {
		return pages, nil
	}

	children := make([]*Task, 0, len(doc.Links))
	for _, link := range doc.Links {
		if c.scope.CheckURL(link) {
			children = append(children, &Task{crawl: c, url: link, depth: t.depth + 1})
		}
	}

	results := make([][]*model.Page, len(children))
	var g errgroup.Group
	for i, child := range children {
		g.Go(func() error {
			pages, err := child.Run(ctx)
			results[i] = pages
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		pages = append(pages, r...)
	}

	if (len(pages) >= c.threshold || t.depth == 0) && !c.cancelled(ctx) {
		if err := c.flush(ctx, pages); err != nil {
			c.logger.Error("failed to flush pages", "site", c.site.URL, "count", len(pages), "error", err)
			if t.depth == 0 {
				return nil, err
			}
		}
		pages = nil
	}
	return pages, nil
}

func (t *Task) newPage(doc *Document) *model.Page {
	return &model.Page{
		SiteID:  t.crawl.site.ID,
		Path:    PathFromRoot(t.crawl.site.URL, t.url),
		Code:    doc.StatusCode,
		Title:   model.FallbackTitle(doc.Title, doc.Text),
		Content: doc.Text,
	}
}

// rootUnavailable marks the site FAILED and returns ErrRootUnavailable.
func (t *Task) rootUnavailable(ctx context.Context, cause error) error {
	c := t.crawl
	err := c.store.UpdateSiteStatus(ctx, c.site.ID, model.StatusFailed, ErrRootUnavailable.Error(), time.Now())
	if err != nil {
		c.logger.Error("failed to mark site failed", "site", c.site.URL, "error", err)
	}
	return fmt.Errorf("%w: %w", ErrRootUnavailable, cause)
}
