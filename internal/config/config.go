package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitesearch"

	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = ":8080"

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// Site operators can use it to recognize indexing traffic in their logs.
	DefaultUserAgent = "SiteSearchBot/1.0 (+https://github.com/nao1215/sitesearch)"

	// DefaultReferrer is sent as the Referer header on every crawl request.
	DefaultReferrer = "http://www.google.com"

	// DefaultTimeout is the per-request timeout for page fetches.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize is the number of response body bytes parsed per page.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultDelay is the politeness pause after every successful fetch.
	DefaultDelay = 500 * time.Millisecond

	// DefaultThreshold is the number of accumulated pages that triggers a
	// flush into the index. The root task of a site always flushes.
	DefaultThreshold = 100

	// DefaultParallelism bounds the number of concurrent fetches across all
	// crawl tasks of one crawl.
	DefaultParallelism = 8

	// DefaultMaxLemmaOccurrence is the fraction of a site's pages above which
	// a lemma is treated as a stop word during search.
	DefaultMaxLemmaOccurrence = 0.8

	// DefaultSearchLimit is the page size used when a search request does not
	// specify a limit.
	DefaultSearchLimit = 20
)

// Config holds all configuration options for sitesearch.
// It is populated from the YAML configuration file and CLI flags, then passed
// through the application by dependency injection.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Database configures the SQLite index store.
	Database DatabaseConfig `yaml:"database"`

	// Log configures log output.
	Log LogConfig `yaml:"log"`

	// Indexing holds the crawler and index settings.
	Indexing IndexingConfig `yaml:"indexing"`

	// Sites is the list of websites to crawl. Every page indexed by the
	// application must belong to one of them.
	Sites []SiteConfig `yaml:"sites"`

	// Verbose enables debug level logging. Set from the --verbose flag.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address in "host:port" form.
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the index store.
type DatabaseConfig struct {
	// Dir is the directory holding the SQLite database file.
	// Defaults to the XDG data directory.
	Dir string `yaml:"dir"`
}

// LogConfig configures log output.
type LogConfig struct {
	// File, when set, receives a copy of every log line with size-based rotation.
	File string `yaml:"file"`

	// JSON switches the log format from text to JSON.
	JSON bool `yaml:"json"`
}

// IndexingConfig holds everything the crawler and the search resolver read.
type IndexingConfig struct {
	// UserAgent is the User-Agent header sent with every fetch.
	UserAgent string `yaml:"userAgent"`

	// Referrer is the Referer header sent with every fetch.
	Referrer string `yaml:"referrer"`

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodySize is the number of response body bytes parsed per page.
	// Longer pages are truncated.
	MaxBodySize int64 `yaml:"maxBodySize"`

	// Delay is the pause after every successful fetch.
	Delay time.Duration `yaml:"delay"`

	// Threshold is the flush batch size.
	Threshold int `yaml:"threshold"`

	// Parallelism bounds concurrent fetches in one crawl.
	Parallelism int `yaml:"parallelism"`

	// RequestsPerSecond caps the global fetch rate. Zero means unlimited.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	// MaxLemmaOccurrencePercentage is the stop-word ratio used by search,
	// expressed as a fraction in (0, 1].
	MaxLemmaOccurrencePercentage float64 `yaml:"maxLemmaOccurrencePercentage"`
}

// NewConfig creates a new Config with default values.
// Sites is left empty; at least one site must come from the configuration file.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Database: DatabaseConfig{
			Dir: XDGDataDir(),
		},
		Indexing: IndexingConfig{
			UserAgent:                    DefaultUserAgent,
			Referrer:                     DefaultReferrer,
			Timeout:                      DefaultTimeout,
			MaxBodySize:                  DefaultMaxBodySize,
			Delay:                        DefaultDelay,
			Threshold:                    DefaultThreshold,
			Parallelism:                  DefaultParallelism,
			MaxLemmaOccurrencePercentage: DefaultMaxLemmaOccurrence,
		},
	}
}

// XDGDataDir returns the XDG data directory for sitesearch.
// On Linux: ~/.local/share/sitesearch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitesearch.
// On Linux: ~/.config/sitesearch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in
// errors.go, possibly wrapped with the offending value.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSites
	}

	for _, site := range c.Sites {
		if err := site.validate(); err != nil {
			return err
		}
	}

	if c.Indexing.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Indexing.MaxBodySize <= 0 {
		return ErrInvalidBodySize
	}

	if c.Indexing.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Indexing.Threshold <= 0 {
		return ErrInvalidThreshold
	}

	if c.Indexing.Parallelism <= 0 {
		return ErrInvalidParallelism
	}

	if c.Indexing.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}

	p := c.Indexing.MaxLemmaOccurrencePercentage
	if p <= 0 || p > 1 {
		return ErrInvalidOccurrence
	}

	return nil
}

// Normalize canonicalizes site URLs and fills in missing site names.
// It is called by LoadConfigFile; callers building a Config by hand should
// call it before Validate.
func (c *Config) Normalize() {
	for i := range c.Sites {
		c.Sites[i].URL = NormalizeSiteURL(c.Sites[i].URL)
		if c.Sites[i].Name == "" {
			if u, err := url.Parse(c.Sites[i].URL); err == nil {
				c.Sites[i].Name = u.Host
			}
		}
	}
}
