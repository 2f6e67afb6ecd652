package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// SiteConfig describes one website to crawl.
type SiteConfig struct {
	// URL is the site root, e.g. "https://example.com". The trailing slash
	// is trimmed on load.
	URL string `yaml:"url"`

	// Name is the display name used in statistics and search results.
	// Defaults to the URL host.
	Name string `yaml:"name,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Patterns use path.Match glob syntax against the path relative to the
	// site root (e.g. "/admin/*").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// NormalizeSiteURL trims surrounding space and trailing slashes from a site
// root URL.
func NormalizeSiteURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// validate checks that the site URL is an absolute http(s) URL.
func (s SiteConfig) validate() error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSiteURL, s.URL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSiteURL, s.URL)
	}
	for _, p := range s.IgnorePatterns {
		if _, err := path.Match(p, "/"); err != nil {
			return fmt.Errorf("invalid ignore pattern %q for %s: %w", p, s.URL, err)
		}
	}
	return nil
}

// Contains reports whether pageURL lies under this site's root.
// The remainder after the root must be empty or start with "/" or "?", so
// "https://example.com" does not contain "https://example.com.evil".
func (s SiteConfig) Contains(pageURL string) bool {
	if !strings.HasPrefix(pageURL, s.URL) {
		return false
	}
	rest := pageURL[len(s.URL):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

// Ignored reports whether the site-relative path matches one of the
// configured ignore patterns.
func (s SiteConfig) Ignored(relPath string) bool {
	for _, p := range s.IgnorePatterns {
		if ok, _ := path.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// SiteFor returns the configured site whose root contains pageURL.
// When several roots match, the longest one wins.
func (c *Config) SiteFor(pageURL string) (SiteConfig, bool) {
	var (
		best  SiteConfig
		found bool
	)
	for _, s := range c.Sites {
		if s.Contains(pageURL) && len(s.URL) > len(best.URL) {
			best = s
			found = true
		}
	}
	return best, found
}
