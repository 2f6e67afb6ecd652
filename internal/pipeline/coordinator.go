package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/indexer"
	"github.com/nao1215/sitesearch/internal/metrics"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/morph"
)

const (
	stateIdle int32 = iota
	stateRunning
)

// Coordinator owns the indexing lifecycle of every configured site.
// A run is Idle or Running; a Running run whose cancellation flag is set is
// winding down and still counts as running.
type Coordinator struct {
	cfg     *config.Config
	db      *database.SearchDB
	fetcher crawler.PageFetcher
	builder *indexer.Builder
	logger  *slog.Logger

	lemmatizer *morph.Lemmatizer

	// state is stateIdle or stateRunning. Start moves it with a single
	// compare-and-swap so concurrent starts admit exactly one.
	state atomic.Int32

	// cancel is shared with every crawl task of the current run.
	cancel atomic.Bool

	// single runs single-page index requests.
	single *Pipeline

	mu sync.Mutex
	// done is closed when the current run ends.
	done chan struct{}
	// stopRun cancels the context of the current run.
	stopRun context.CancelFunc
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithFetcher replaces the page fetcher built from the configuration.
func WithFetcher(f crawler.PageFetcher) CoordinatorOption {
	return func(c *Coordinator) {
		c.fetcher = f
	}
}

// WithLemmatizer shares a lemmatizer with the coordinator.
func WithLemmatizer(l *morph.Lemmatizer) CoordinatorOption {
	return func(c *Coordinator) {
		c.lemmatizer = l
	}
}

// NewCoordinator creates an idle Coordinator for the sites of cfg.
func NewCoordinator(cfg *config.Config, db *database.SearchDB, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:    cfg,
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = crawler.NewFetcher(
			crawler.WithUserAgent(cfg.Indexing.UserAgent),
			crawler.WithReferrer(cfg.Indexing.Referrer),
			crawler.WithTimeout(cfg.Indexing.Timeout),
			crawler.WithMaxBodySize(cfg.Indexing.MaxBodySize),
			crawler.WithRateLimit(cfg.Indexing.RequestsPerSecond),
		)
	}
	if c.lemmatizer == nil {
		c.lemmatizer = morph.NewLemmatizer()
	}
	c.builder = indexer.NewBuilder(db, c.lemmatizer, indexer.WithLogger(c.logger))

	c.single = New(WithPipelineLogger(c.logger))
	c.single.AddSteps(
		NewResolveSiteStep(cfg, db, c.IsIndexing),
		NewFetchStep(c.fetcher),
		NewIndexStep(c.builder),
	)
	return c
}

// Start begins a full run in the background and returns immediately.
// The run wipes the store and then crawls every configured site
// concurrently. The run outlives ctx; it ends on Stop or Close.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateIdle, stateRunning) {
		return ErrAlreadyRunning
	}
	c.cancel.Store(false)
	metrics.IndexingRunning.Set(1)

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	c.mu.Lock()
	c.done = done
	c.stopRun = stop
	c.mu.Unlock()

	c.logger.Info("indexing started", "sites", len(c.cfg.Sites))
	go c.run(runCtx, stop, done)
	return nil
}

// Stop asks the current run to finish. It returns immediately; tasks stop
// fetching and flushing, and every unfinished site is marked FAILED.
func (c *Coordinator) Stop() error {
	if c.state.Load() != stateRunning {
		return ErrNotRunning
	}
	c.cancel.Store(true)
	c.logger.Info("indexing stop requested")
	return nil
}

// IsIndexing reports whether a run is in progress, including one that is
// winding down after Stop.
func (c *Coordinator) IsIndexing() bool {
	return c.state.Load() == stateRunning
}

// Wait blocks until the current run, if any, has ended.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the current run, cancels its in-flight requests and waits for
// it to end.
func (c *Coordinator) Close() error {
	c.cancel.Store(true)
	c.mu.Lock()
	stop := c.stopRun
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	return c.Wait(context.Background())
}

// IndexPage fetches one page of a configured site and re-indexes it,
// replacing any stored page with the same path.
func (c *Coordinator) IndexPage(ctx context.Context, pageURL string) error {
	job := &PageJob{URL: pageURL}
	if err := c.single.Execute(ctx, job); err != nil {
		return err
	}
	c.logger.Info("page indexed", "url", pageURL, "page_id", job.Page.ID)
	return nil
}

func (c *Coordinator) run(ctx context.Context, stop context.CancelFunc, done chan struct{}) {
	defer func() {
		stop()
		c.state.Store(stateIdle)
		metrics.IndexingRunning.Set(0)
		close(done)
	}()

	startTime := time.Now()

	if err := c.db.Wipe(ctx); err != nil {
		c.logger.Error("failed to clear index", "error", err)
		return
	}

	parallelism := c.cfg.Indexing.Parallelism
	if parallelism <= 0 {
		parallelism = config.DefaultParallelism
	}
	sem := semaphore.NewWeighted(int64(parallelism))

	var g errgroup.Group
	for _, sc := range c.cfg.Sites {
		g.Go(func() error {
			c.indexSite(ctx, sc, sem)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // site goroutines record their errors on the site row

	c.logger.Info("indexing finished",
		"sites", len(c.cfg.Sites),
		"cancelled", c.cancel.Load(),
		"elapsed", time.Since(startTime),
	)
}

// indexSite crawls one site and records the outcome on its row.
func (c *Coordinator) indexSite(ctx context.Context, sc config.SiteConfig, sem *semaphore.Weighted) {
	site := &model.Site{
		URL:        sc.URL,
		Name:       sc.Name,
		Status:     model.StatusIndexing,
		StatusTime: time.Now(),
	}
	if err := c.db.UpsertSite(ctx, site); err != nil {
		c.logger.Error("failed to create site", "site", sc.URL, "error", err)
		return
	}

	logger := c.logger.With("site", sc.URL)
	logger.Info("crawling site")

	crawl := crawler.NewCrawl(site, crawler.NewScope(sc), c.fetcher,
		c.builder.Flusher(site, indexer.NewLemmaCache()), c.db,
		crawler.WithDelay(c.cfg.Indexing.Delay),
		crawler.WithThreshold(c.cfg.Indexing.Threshold),
		crawler.WithCancelFlag(&c.cancel),
		crawler.WithSemaphore(sem),
		crawler.WithLogger(logger),
	)
	err := crawl.Run(ctx)

	// The run context may already be cancelled; the final status must
	// still be written.
	writeCtx := context.WithoutCancel(ctx)
	status, lastError := model.StatusIndexed, ""
	switch {
	case errors.Is(err, crawler.ErrRootUnavailable):
		logger.Warn("site main page is unavailable", "error", err)
		return
	case c.cancel.Load() || ctx.Err() != nil:
		status, lastError = model.StatusFailed, ErrStoppedByUser.Error()
	case err != nil:
		status, lastError = model.StatusFailed, err.Error()
	}

	if err := c.db.UpdateSiteStatus(writeCtx, site.ID, status, lastError, time.Now()); err != nil {
		logger.Error("failed to update site status", "error", err)
		return
	}
	logger.Info("site crawl finished", "status", status.String())
}
