package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/morph"
)

func setupBuilder(t *testing.T) (*Builder, *database.SearchDB, *model.Site) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	site := &model.Site{URL: "https://example.com", Name: "Example", Status: model.StatusIndexing, StatusTime: time.Now()}
	if err := db.UpsertSite(context.Background(), site); err != nil {
		t.Fatalf("failed to create site: %v", err)
	}
	return NewBuilder(db, morph.NewLemmatizer()), db, site
}

// failOnceStore fails its first SaveBatch call and delegates the rest.
type failOnceStore struct {
	*database.SearchDB
	failed bool
}

func (s *failOnceStore) SaveBatch(ctx context.Context, pages []*model.Page, lemmas []*model.Lemma, ranks []map[string]int) error {
	if !s.failed {
		s.failed = true
		return errors.New("disk I/O error")
	}
	return s.SearchDB.SaveBatch(ctx, pages, lemmas, ranks)
}

func indexRowCount(t *testing.T, db *database.SearchDB, siteID int64, lemma string) int {
	t.Helper()

	l, err := db.FindLemma(context.Background(), siteID, lemma)
	if err != nil || l == nil {
		t.Fatalf("failed to find lemma %q: %v", lemma, err)
	}
	rows, err := db.IndexesByLemma(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("failed to list index rows: %v", err)
	}
	return len(rows)
}

func lemmaFrequency(t *testing.T, db *database.SearchDB, siteID int64, lemma string) int {
	t.Helper()

	l, err := db.FindLemma(context.Background(), siteID, lemma)
	if err != nil {
		t.Fatalf("failed to find lemma: %v", err)
	}
	if l == nil {
		return -1
	}
	return l.Frequency
}

// TestSavePages tests the bulk indexing path.
func TestSavePages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("builds ranks and frequencies", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)
		cache := NewLemmaCache()

		pages := []*model.Page{
			{SiteID: site.ID, Path: "/1", Code: 200, Content: "car car fast"},
			{SiteID: site.ID, Path: "/2", Code: 200, Content: "car red"},
		}
		if err := b.SavePages(ctx, site, cache, pages); err != nil {
			t.Fatalf("SavePages failed: %v", err)
		}

		if got := lemmaFrequency(t, db, site.ID, "car"); got != 2 {
			t.Errorf("expected car frequency 2, got %d", got)
		}
		if got := lemmaFrequency(t, db, site.ID, "fast"); got != 1 {
			t.Errorf("expected fast frequency 1, got %d", got)
		}
		if cache.Len() != 3 {
			t.Errorf("expected 3 cached lemmas, got %d", cache.Len())
		}

		car, _ := db.FindLemma(ctx, site.ID, "car")
		rows, err := db.IndexesByLemma(ctx, car.ID)
		if err != nil {
			t.Fatal(err)
		}
		ranks := make(map[int64]float64)
		for _, r := range rows {
			ranks[r.PageID] = r.Rank
		}
		if ranks[pages[0].ID] != 2 || ranks[pages[1].ID] != 1 {
			t.Errorf("expected ranks 2 and 1, got %v", ranks)
		}
	})

	t.Run("later batches continue frequencies", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)
		cache := NewLemmaCache()

		for i := range 3 {
			page := &model.Page{SiteID: site.ID, Path: fmt.Sprintf("/%d", i), Code: 200, Content: "car"}
			if err := b.SavePages(ctx, site, cache, []*model.Page{page}); err != nil {
				t.Fatal(err)
			}
		}
		if got := lemmaFrequency(t, db, site.ID, "car"); got != 3 {
			t.Errorf("expected car frequency 3, got %d", got)
		}
	})

	t.Run("concurrent flushes lose no updates", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)
		cache := NewLemmaCache()

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				page := &model.Page{SiteID: site.ID, Path: fmt.Sprintf("/p%d", i), Code: 200, Content: "car fast"}
				errs <- b.SavePages(ctx, site, cache, []*model.Page{page})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("SavePages failed: %v", err)
			}
		}

		if got := lemmaFrequency(t, db, site.ID, "car"); got != n {
			t.Errorf("expected car frequency %d, got %d", n, got)
		}
		car, _ := db.FindLemma(ctx, site.ID, "car")
		rows, _ := db.IndexesByLemma(ctx, car.ID)
		if len(rows) != n {
			t.Errorf("expected %d index rows, got %d", n, len(rows))
		}
	})

	t.Run("failed batch leaves frequencies matching index rows", func(t *testing.T) {
		t.Parallel()
		_, db, site := setupBuilder(t)
		b := NewBuilder(&failOnceStore{SearchDB: db}, morph.NewLemmatizer())
		cache := NewLemmaCache()

		first := &model.Page{SiteID: site.ID, Path: "/1", Code: 200, Content: "car fast"}
		if err := b.SavePages(ctx, site, cache, []*model.Page{first}); err == nil {
			t.Fatal("expected the first batch to fail")
		}
		if cache.Len() != 0 {
			t.Errorf("expected an untouched cache, got %d lemmas", cache.Len())
		}

		second := &model.Page{SiteID: site.ID, Path: "/2", Code: 200, Content: "car"}
		if err := b.SavePages(ctx, site, cache, []*model.Page{second}); err != nil {
			t.Fatalf("SavePages failed: %v", err)
		}
		if got, want := lemmaFrequency(t, db, site.ID, "car"), indexRowCount(t, db, site.ID, "car"); got != want || got != 1 {
			t.Errorf("expected car frequency 1 matching index rows, got %d with %d rows", got, want)
		}
		if got := lemmaFrequency(t, db, site.ID, "fast"); got != -1 {
			t.Errorf("expected no fast lemma, got frequency %d", got)
		}
	})

	t.Run("rejected batch stores nothing", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)
		cache := NewLemmaCache()

		if err := b.SavePages(ctx, site, cache, []*model.Page{{SiteID: site.ID, Path: "/1", Code: 200, Content: "car"}}); err != nil {
			t.Fatal(err)
		}
		dup := []*model.Page{
			{SiteID: site.ID, Path: "/2", Code: 200, Content: "car red"},
			{SiteID: site.ID, Path: "/1", Code: 200, Content: "car"},
		}
		if err := b.SavePages(ctx, site, cache, dup); err == nil {
			t.Fatal("expected duplicate path to fail the batch")
		}
		if dup[0].ID != 0 {
			t.Errorf("expected rolled back page id to be reset, got %d", dup[0].ID)
		}

		n, _ := db.CountPages(ctx, site.ID)
		if n != 1 {
			t.Errorf("expected 1 page, got %d", n)
		}
		if got := lemmaFrequency(t, db, site.ID, "red"); got != -1 {
			t.Errorf("expected no red lemma, got frequency %d", got)
		}
		if got, want := lemmaFrequency(t, db, site.ID, "car"), indexRowCount(t, db, site.ID, "car"); got != want {
			t.Errorf("expected car frequency %d to match index rows, got %d", want, got)
		}

		if err := b.SavePages(ctx, site, cache, []*model.Page{{SiteID: site.ID, Path: "/3", Code: 200, Content: "car"}}); err != nil {
			t.Fatal(err)
		}
		if got := lemmaFrequency(t, db, site.ID, "car"); got != 2 {
			t.Errorf("expected car frequency 2, got %d", got)
		}
	})

	t.Run("page without lemmas is stored", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)

		page := &model.Page{SiteID: site.ID, Path: "/", Code: 200, Content: "the of 123"}
		if err := b.Flusher(site, NewLemmaCache()).Flush(ctx, []*model.Page{page}); err != nil {
			t.Fatal(err)
		}
		n, _ := db.CountPages(ctx, site.ID)
		lemmas, _ := db.CountLemmas(ctx, site.ID)
		if n != 1 || lemmas != 0 {
			t.Errorf("expected 1 page and 0 lemmas, got %d and %d", n, lemmas)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()
		b, _, site := setupBuilder(t)

		if err := b.SavePages(ctx, site, NewLemmaCache(), nil); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})
}

// TestIndexPage tests the single-page indexing path.
func TestIndexPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("new page", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)

		page := &model.Page{Path: "/news", Code: 200, Title: "News", Content: "car car red"}
		if err := b.IndexPage(ctx, site, page); err != nil {
			t.Fatalf("IndexPage failed: %v", err)
		}
		if page.ID == 0 || page.SiteID != site.ID {
			t.Errorf("expected stored page, got %+v", page)
		}
		if got := lemmaFrequency(t, db, site.ID, "car"); got != 1 {
			t.Errorf("expected car frequency 1, got %d", got)
		}
	})

	t.Run("reindex replaces the page and its lemmas", func(t *testing.T) {
		t.Parallel()
		b, db, site := setupBuilder(t)

		other := &model.Page{SiteID: site.ID, Path: "/other", Code: 200, Content: "car"}
		old := &model.Page{SiteID: site.ID, Path: "/news", Code: 200, Content: "car fast"}
		if err := b.SavePages(ctx, site, NewLemmaCache(), []*model.Page{other, old}); err != nil {
			t.Fatal(err)
		}

		fresh := &model.Page{Path: "/news", Code: 200, Content: "red"}
		if err := b.IndexPage(ctx, site, fresh); err != nil {
			t.Fatalf("IndexPage failed: %v", err)
		}
		if fresh.ID == old.ID {
			t.Error("expected a fresh page identity")
		}

		if got := lemmaFrequency(t, db, site.ID, "car"); got != 1 {
			t.Errorf("expected car frequency 1, got %d", got)
		}
		if got := lemmaFrequency(t, db, site.ID, "fast"); got != 0 {
			t.Errorf("expected fast frequency 0, got %d", got)
		}
		if got := lemmaFrequency(t, db, site.ID, "red"); got != 1 {
			t.Errorf("expected red frequency 1, got %d", got)
		}
		n, _ := db.CountPages(ctx, site.ID)
		if n != 2 {
			t.Errorf("expected 2 pages, got %d", n)
		}
	})
}
