package crawler

import (
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/nao1215/sitesearch/internal/config"
)

// deniedExtensions lists file types that are never fetched.
var deniedExtensions = map[string]struct{}{
	"pdf": {}, "gif": {}, "zip": {}, "jpg": {}, "jpeg": {},
	"png": {}, "tar": {}, "jar": {}, "gz": {}, "svg": {},
	"ppt": {}, "pptx": {}, "eps": {}, "xlsx": {}, "doc": {},
}

// PathFromRoot returns the site-relative path of a page URL.
// The result always starts with "/" and has no trailing "/" unless it is
// the root itself.
func PathFromRoot(root, pageURL string) string {
	rel := strings.TrimPrefix(pageURL, strings.TrimRight(root, "/"))
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	if len(rel) > 1 {
		rel = strings.TrimRight(rel, "/")
		if rel == "" {
			rel = "/"
		}
	}
	return rel
}

// hasDeniedExtension reports whether the URL path ends in a denied file type.
func hasDeniedExtension(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(strings.TrimRight(u.Path, "/")), ".")
	_, denied := deniedExtensions[strings.ToLower(ext)]
	return denied
}

// VisitedSet is a concurrent set of site-relative paths.
type VisitedSet struct {
	m sync.Map
}

// NewVisitedSet creates a set holding the given paths.
func NewVisitedSet(paths ...string) *VisitedSet {
	v := &VisitedSet{}
	for _, p := range paths {
		v.m.Store(p, struct{}{})
	}
	return v
}

// Add inserts path and reports whether it was absent. Among concurrent
// callers adding the same path exactly one gets true.
func (v *VisitedSet) Add(path string) bool {
	_, loaded := v.m.LoadOrStore(path, struct{}{})
	return !loaded
}

// Contains reports whether path is in the set.
func (v *VisitedSet) Contains(path string) bool {
	_, ok := v.m.Load(path)
	return ok
}

// Scope decides which links of one site are crawled.
type Scope struct {
	site    config.SiteConfig
	visited *VisitedSet
}

// NewScope creates a Scope for a site with a fresh visited set seeded
// with the root path.
func NewScope(site config.SiteConfig) *Scope {
	return &Scope{site: site, visited: NewVisitedSet("/")}
}

// CheckURL reports whether link should be crawled and claims its path on
// success.
func (s *Scope) CheckURL(link string) bool {
	if !s.site.Contains(link) {
		return false
	}
	if strings.Contains(link, "#") {
		return false
	}
	if hasDeniedExtension(link) {
		return false
	}
	rel := PathFromRoot(s.site.URL, link)
	if s.site.Ignored(rel) {
		return false
	}
	return s.visited.Add(rel)
}

// Visited reports whether a path has been claimed.
func (s *Scope) Visited(rel string) bool {
	return s.visited.Contains(rel)
}
