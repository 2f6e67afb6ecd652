package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/indexer"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/morph"
)

// fixture is an index built from page contents.
type fixture struct {
	db       *database.SearchDB
	resolver *Resolver
	pages    map[string]*model.Page
}

// newFixture indexes the given sites; each maps page path to content.
func newFixture(t *testing.T, sites map[string]map[string]string) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	lemmatizer := morph.NewLemmatizer()
	builder := indexer.NewBuilder(db, lemmatizer)
	f := &fixture{db: db, resolver: NewResolver(db, lemmatizer), pages: make(map[string]*model.Page)}

	for url, contents := range sites {
		site := &model.Site{URL: url, Name: "name of " + url, Status: model.StatusIndexed, StatusTime: time.Now()}
		if err := db.UpsertSite(ctx, site); err != nil {
			t.Fatal(err)
		}
		var pages []*model.Page
		for path, content := range contents {
			p := &model.Page{SiteID: site.ID, Path: path, Code: 200, Title: "Title " + path, Content: content}
			pages = append(pages, p)
			f.pages[url+path] = p
		}
		if err := builder.SavePages(ctx, site, indexer.NewLemmaCache(), pages); err != nil {
			t.Fatalf("failed to index %s: %v", url, err)
		}
	}
	return f
}

func uris(items []model.SearchItem) []string {
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.URI
	}
	return result
}

// TestSearch tests query resolution and ranking.
func TestSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	shop := map[string]map[string]string{
		"https://shop.example": {
			"/1": "red car",
			"/2": "red",
			"/3": "car",
			"/4": "red car car",
			"/5": "blue",
			"/6": "blue",
			"/7": "blue",
			"/8": "blue",
		},
	}

	t.Run("requires every lemma and ranks by summed rank", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		res, err := f.resolver.Search(ctx, Query{Text: "red cars"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if res.Count != 2 {
			t.Fatalf("expected 2 results, got %d: %v", res.Count, uris(res.Items))
		}
		if res.Items[0].URI != "/4" || res.Items[1].URI != "/1" {
			t.Errorf("expected [/4 /1], got %v", uris(res.Items))
		}
		if res.Items[0].Relevance != 1.0 {
			t.Errorf("expected top relevance 1.0, got %v", res.Items[0].Relevance)
		}
		if math.Abs(res.Items[1].Relevance-2.0/3.0) > 1e-9 {
			t.Errorf("expected relevance 2/3, got %v", res.Items[1].Relevance)
		}
		item := res.Items[0]
		if item.Site != "https://shop.example" || item.SiteName != "name of https://shop.example" || item.Title != "Title /4" {
			t.Errorf("unexpected item %+v", item)
		}
		if !strings.Contains(item.Snippet, "<b>red</b>") {
			t.Errorf("expected highlighted snippet, got %q", item.Snippet)
		}
	})

	t.Run("pagination keeps the total count", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		res, err := f.resolver.Search(ctx, Query{Text: "red car", Offset: 1, Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 2 || len(res.Items) != 1 || res.Items[0].URI != "/1" {
			t.Errorf("expected count 2 and [/1], got %d %v", res.Count, uris(res.Items))
		}

		res, err = f.resolver.Search(ctx, Query{Text: "red car", Offset: 5})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 2 || len(res.Items) != 0 {
			t.Errorf("expected count 2 and no items, got %d %v", res.Count, uris(res.Items))
		}
	})

	t.Run("huge limit returns the rest of the results", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		res, err := f.resolver.Search(ctx, Query{Text: "car", Offset: 1, Limit: math.MaxInt})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 3 || len(res.Items) != 2 {
			t.Errorf("expected count 3 and 2 items, got %d %v", res.Count, uris(res.Items))
		}
	})

	t.Run("unknown lemma is ignored", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		res, err := f.resolver.Search(ctx, Query{Text: "red zebra"})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 3 {
			t.Errorf("expected the 3 red pages, got %v", uris(res.Items))
		}
	})

	t.Run("no match yields an empty result", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		for _, text := range []string{"zebra", "the of and"} {
			res, err := f.resolver.Search(ctx, Query{Text: text})
			if err != nil {
				t.Fatal(err)
			}
			if res.Count != 0 || len(res.Items) != 0 {
				t.Errorf("%q: expected no results, got %v", text, uris(res.Items))
			}
		}
	})

	t.Run("blank query", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, shop)

		if _, err := f.resolver.Search(ctx, Query{Text: "   "}); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("expected ErrEmptyQuery, got %v", err)
		}
	})

	t.Run("fast car with a frequent lemma", func(t *testing.T) {
		t.Parallel()

		contents := make(map[string]string)
		for i := 1; i <= 9; i++ {
			contents[fmt.Sprintf("/%d", i)] = "car"
		}
		contents["/1"] = "fast fast car"
		contents["/10"] = "fast"
		f := newFixture(t, map[string]map[string]string{"https://cars.example": contents})

		res, err := f.resolver.Search(ctx, Query{Text: "fast car"})
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 2 {
			t.Fatalf("expected the 2 fast pages, got %v", uris(res.Items))
		}
		if res.Items[0].URI != "/1" || res.Items[0].Relevance != 1.0 || res.Items[1].Relevance != 0.5 {
			t.Errorf("unexpected ranking %+v", res.Items)
		}
	})

	t.Run("site filter", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, map[string]map[string]string{
			"https://a.example": {"/": "garden", "/x": "other", "/y": "other"},
			"https://b.example": {"/": "garden", "/x": "other", "/y": "other"},
		})

		all, err := f.resolver.Search(ctx, Query{Text: "garden"})
		if err != nil {
			t.Fatal(err)
		}
		if all.Count != 2 {
			t.Errorf("expected 2 results across sites, got %d", all.Count)
		}

		one, err := f.resolver.Search(ctx, Query{Text: "garden", Site: "https://b.example/"})
		if err != nil {
			t.Fatal(err)
		}
		if one.Count != 1 || one.Items[0].Site != "https://b.example" {
			t.Errorf("expected one result from b.example, got %+v", one.Items)
		}

		none, err := f.resolver.Search(ctx, Query{Text: "garden", Site: "https://unknown.example"})
		if err != nil {
			t.Fatal(err)
		}
		if none.Count != 0 {
			t.Errorf("expected no results for unknown site, got %d", none.Count)
		}
	})

	t.Run("relevance is normalized across sites", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, map[string]map[string]string{
			"https://a.example": {"/": "garden garden garden garden", "/x": "other", "/y": "other"},
			"https://b.example": {"/": "garden", "/x": "other", "/y": "other"},
		})

		res, err := f.resolver.Search(ctx, Query{Text: "garden"})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Items) != 2 || res.Items[0].Relevance != 1.0 || res.Items[1].Relevance != 0.25 {
			t.Errorf("unexpected relevances %+v", res.Items)
		}
	})
}

// TestDisplayTitle tests title shortening.
func TestDisplayTitle(t *testing.T) {
	t.Parallel()

	short := "Short title"
	if got := displayTitle(short); got != short {
		t.Errorf("expected %q, got %q", short, got)
	}

	long := strings.Repeat("ж", 70)
	got := displayTitle(long)
	if utf8.RuneCountInString(got) != model.MaxTitleLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected title %q", got)
	}
}

// TestBuildSnippet tests snippet construction.
func TestBuildSnippet(t *testing.T) {
	t.Parallel()

	l := morph.NewLemmatizer()

	t.Run("highlights matches with context", func(t *testing.T) {
		t.Parallel()

		got := BuildSnippet("Yesterday a fast car passed by", []string{"fast"}, l)
		want := "...<b>fast</b> car passed by "
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("context stops after ten words", func(t *testing.T) {
		t.Parallel()

		content := "car one two three four five six seven eight nine ten eleven twelve"
		got := BuildSnippet(content, []string{"car"}, l)
		if strings.Contains(got, "eleven") || !strings.Contains(got, "ten") {
			t.Errorf("expected exactly ten context words, got %q", got)
		}
	})

	t.Run("lemma repeats only after all were seen", func(t *testing.T) {
		t.Parallel()

		got := BuildSnippet("car car red car", []string{"car", "red"}, l)
		want := "...<b>car</b> car <b>red</b> <b>car</b> "
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		if got := BuildSnippet("nothing relevant here", []string{"car"}, l); got != "..." {
			t.Errorf("expected bare ellipsis, got %q", got)
		}
	})

	t.Run("length is capped", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("car somewhat lengthy wording follows every single match ", 50)
		got := BuildSnippet(content, []string{"car"}, l)
		if n := utf8.RuneCountInString(got); n > SnippetCap+3 {
			t.Errorf("snippet has %d characters, cap is %d", n, SnippetCap+3)
		}
		if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
			t.Errorf("expected ellipses on both ends, got %q", got)
		}
	})

	t.Run("long word never overflows the cap", func(t *testing.T) {
		t.Parallel()

		content := "car " + strings.Repeat("x", 300)
		got := BuildSnippet(content, []string{"car"}, l)
		if n := utf8.RuneCountInString(got); n > SnippetCap+3 {
			t.Errorf("snippet has %d characters, cap is %d", n, SnippetCap+3)
		}
	})
}
