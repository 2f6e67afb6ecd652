package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrFetch is returned, wrapped, for every failed fetch: network errors,
// timeouts, HTTP error statuses and unparseable bodies.
var ErrFetch = errors.New("failed to fetch page data")

// PageFetcher retrieves and parses one page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Document, error)
}

// Fetcher is the HTTP implementation of PageFetcher.
// It sends the configured User-Agent and Referer, follows redirects and
// does not check the content type. Failed fetches are not retried.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	referrer    string
	maxBodySize int64
	limiter     *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithReferrer sets the Referer header.
func WithReferrer(ref string) FetcherOption {
	return func(f *Fetcher) {
		f.referrer = ref
	}
}

// WithMaxBodySize limits how many bytes of a response body are parsed.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithRateLimit caps the number of requests per second across every
// goroutine sharing the Fetcher. Zero or less disables the limit.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			f.limiter = nil
		}
	}
}

// NewFetcher creates a Fetcher with a 10 second timeout and a 10MB body limit.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 10 * time.Second},
		maxBodySize: 10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads pageURL and parses it.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referrer != "" {
		req.Header.Set("Referer", f.referrer)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, pageURL, resp.StatusCode)
	}

	doc, err := ParseDocument(resp.Request.URL, io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}
	doc.StatusCode = resp.StatusCode
	return doc, nil
}
