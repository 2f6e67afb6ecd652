package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *PageJob) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *PageJob) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func setupTestDB(t *testing.T) *database.SearchDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig(urls ...string) *config.Config {
	cfg := config.NewConfig()
	cfg.Indexing.Delay = 0
	cfg.Indexing.Timeout = 5 * time.Second
	for _, u := range urls {
		cfg.Sites = append(cfg.Sites, config.SiteConfig{URL: u, Name: "test"})
	}
	return cfg
}

func newCoordinator(t *testing.T, cfg *config.Config, db *database.SearchDB) *Coordinator {
	t.Helper()

	c := NewCoordinator(cfg, db)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitRun(t *testing.T, c *Coordinator) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("run did not finish: %v", err)
	}
}

func findSite(t *testing.T, db *database.SearchDB, url string) *model.Site {
	t.Helper()

	site, err := db.FindSiteByURL(context.Background(), url)
	if err != nil || site == nil {
		t.Fatalf("site %s not found: %v", url, err)
	}
	return site
}

// TestPipelineExecute tests step execution order and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"a", "b", "c"} {
			p.AddSteps(&mockStep{name: name, doFunc: func(_ context.Context, _ *PageJob) error {
				order = append(order, name)
				return nil
			}})
		}

		if err := p.Execute(context.Background(), &PageJob{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fmt.Sprint(order) != "[a b c]" {
			t.Errorf("expected [a b c], got %v", order)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		first := &mockStep{name: "first", doFunc: func(context.Context, *PageJob) error { return boom }}
		second := &mockStep{name: "second"}
		p := New()
		p.AddSteps(first, second)

		if err := p.Execute(context.Background(), &PageJob{}); !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step to be skipped")
		}
	})

	t.Run("cancelled context runs nothing", func(t *testing.T) {
		t.Parallel()

		step := &mockStep{name: "step"}
		p := New()
		p.AddSteps(step)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := p.Execute(ctx, &PageJob{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step to be skipped")
		}
	})
}

// TestCoordinator tests full indexing runs.
func TestCoordinator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("indexes a two page site", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<title>Home</title><p>fast car</p><a href="/a">a</a>`)
		})
		mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<title>A</title><p>red car</p>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		db := setupTestDB(t)
		c := newCoordinator(t, testConfig(srv.URL), db)

		if err := c.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		waitRun(t, c)

		if c.IsIndexing() {
			t.Error("expected idle coordinator")
		}
		site := findSite(t, db, srv.URL)
		if site.Status != model.StatusIndexed || site.LastError != "" {
			t.Errorf("expected INDEXED without error, got %v %q", site.Status, site.LastError)
		}
		pages, _ := db.CountPages(ctx, site.ID)
		if pages != 2 {
			t.Errorf("expected 2 pages, got %d", pages)
		}
		car, _ := db.FindLemma(ctx, site.ID, "car")
		if car == nil || car.Frequency != 2 {
			t.Errorf("expected car frequency 2, got %+v", car)
		}
	})

	t.Run("unavailable main page fails the site", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		db := setupTestDB(t)
		c := newCoordinator(t, testConfig(srv.URL), db)
		if err := c.Start(ctx); err != nil {
			t.Fatal(err)
		}
		waitRun(t, c)

		site := findSite(t, db, srv.URL)
		if site.Status != model.StatusFailed || site.LastError != crawler.ErrRootUnavailable.Error() {
			t.Errorf("expected FAILED with main page error, got %v %q", site.Status, site.LastError)
		}
	})

	t.Run("start wipes previous data", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `home`)
		}))
		defer srv.Close()

		db := setupTestDB(t)
		stale := &model.Site{URL: "https://stale.example", Name: "stale", Status: model.StatusIndexed, StatusTime: time.Now()}
		if err := db.UpsertSite(ctx, stale); err != nil {
			t.Fatal(err)
		}

		c := newCoordinator(t, testConfig(srv.URL), db)
		if err := c.Start(ctx); err != nil {
			t.Fatal(err)
		}
		waitRun(t, c)

		sites, _ := db.ListSites(ctx)
		if len(sites) != 1 || sites[0].URL != srv.URL {
			t.Errorf("expected only the configured site, got %+v", sites)
		}
	})

	t.Run("second start is rejected and stop ends the run", func(t *testing.T) {
		t.Parallel()

		requested := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<a href="/slow">slow</a>`)
		})
		mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(requested) })
			select {
			case <-release:
			case <-r.Context().Done():
			}
			fmt.Fprint(w, `slow page`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		db := setupTestDB(t)
		c := newCoordinator(t, testConfig(srv.URL), db)

		if err := c.Start(ctx); err != nil {
			t.Fatal(err)
		}
		if err := c.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}

		select {
		case <-requested:
		case <-time.After(10 * time.Second):
			t.Fatal("crawl never reached the child page")
		}
		if !c.IsIndexing() {
			t.Error("expected running coordinator")
		}
		if err := c.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
		if !c.IsIndexing() {
			t.Error("expected coordinator to stay running while winding down")
		}
		close(release)
		waitRun(t, c)

		site := findSite(t, db, srv.URL)
		if site.Status != model.StatusFailed || site.LastError != ErrStoppedByUser.Error() {
			t.Errorf("expected FAILED stopped by user, got %v %q", site.Status, site.LastError)
		}
		pages, _ := db.CountPages(ctx, site.ID)
		if pages != 0 {
			t.Errorf("expected no pages after stop, got %d", pages)
		}
		if err := c.Stop(); !errors.Is(err, ErrNotRunning) {
			t.Errorf("expected ErrNotRunning after the run, got %v", err)
		}
	})

	t.Run("stop while idle", func(t *testing.T) {
		t.Parallel()

		c := newCoordinator(t, testConfig("https://example.com"), setupTestDB(t))
		if err := c.Stop(); !errors.Is(err, ErrNotRunning) {
			t.Errorf("expected ErrNotRunning, got %v", err)
		}
	})

	t.Run("concurrent starts admit exactly one", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			fmt.Fprint(w, `home`)
		}))
		defer srv.Close()

		c := newCoordinator(t, testConfig(srv.URL), setupTestDB(t))

		const n = 20
		results := make(chan error, n)
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- c.Start(ctx)
			}()
		}
		wg.Wait()
		close(results)

		started := 0
		for err := range results {
			switch {
			case err == nil:
				started++
			case errors.Is(err, ErrAlreadyRunning):
			default:
				t.Errorf("unexpected error %v", err)
			}
		}
		close(release)
		waitRun(t, c)
		if started != 1 {
			t.Errorf("expected exactly one start, got %d", started)
		}
	})
}

// TestIndexPage tests single-page indexing.
func TestIndexPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newServer := func(t *testing.T) *httptest.Server {
		t.Helper()
		mux := http.NewServeMux()
		mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<title>News</title><p>fast car</p>`)
		})
		mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("creates the site and indexes the page", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t)
		db := setupTestDB(t)
		c := newCoordinator(t, testConfig(srv.URL), db)

		if err := c.IndexPage(ctx, srv.URL+"/news"); err != nil {
			t.Fatalf("IndexPage failed: %v", err)
		}
		site := findSite(t, db, srv.URL)
		if site.Status != model.StatusIndexed {
			t.Errorf("expected INDEXED site, got %v", site.Status)
		}
		page, _ := db.FindPage(ctx, site.ID, "/news")
		if page == nil || page.Title != "News" {
			t.Fatalf("expected stored page, got %+v", page)
		}

		if err := c.IndexPage(ctx, srv.URL+"/news"); err != nil {
			t.Fatalf("reindex failed: %v", err)
		}
		n, _ := db.CountPages(ctx, site.ID)
		if n != 1 {
			t.Errorf("expected 1 page after reindex, got %d", n)
		}
		car, _ := db.FindLemma(ctx, site.ID, "car")
		if car == nil || car.Frequency != 1 {
			t.Errorf("expected car frequency 1, got %+v", car)
		}
	})

	t.Run("page outside configured sites", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t)
		c := newCoordinator(t, testConfig(srv.URL), setupTestDB(t))

		err := c.IndexPage(ctx, "https://elsewhere.example/news")
		if !errors.Is(err, ErrOutsideSites) {
			t.Errorf("expected ErrOutsideSites, got %v", err)
		}
	})

	t.Run("site being indexed", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t)
		db := setupTestDB(t)
		site := &model.Site{URL: srv.URL, Name: "test", Status: model.StatusIndexing, StatusTime: time.Now()}
		if err := db.UpsertSite(ctx, site); err != nil {
			t.Fatal(err)
		}
		c := newCoordinator(t, testConfig(srv.URL), db)

		if err := c.IndexPage(ctx, srv.URL+"/news"); !errors.Is(err, ErrSiteIndexing) {
			t.Errorf("expected ErrSiteIndexing, got %v", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t)
		c := newCoordinator(t, testConfig(srv.URL), setupTestDB(t))

		if err := c.IndexPage(ctx, srv.URL+"/gone"); !errors.Is(err, crawler.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})
}
