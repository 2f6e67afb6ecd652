package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while still getting a human-readable message.
var (
	// ErrNoSites is returned when the configuration lists no site to index.
	ErrNoSites = errors.New("no sites configured: add at least one entry under 'sites'")

	// ErrInvalidSiteURL is returned when a site URL is not an absolute
	// http or https URL.
	ErrInvalidSiteURL = errors.New("invalid site url: must be an absolute http(s) url")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBodySize is returned when maxBodySize is not positive.
	ErrInvalidBodySize = errors.New("invalid maxBodySize: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidThreshold is returned when the flush threshold is not positive.
	ErrInvalidThreshold = errors.New("invalid threshold: must be positive")

	// ErrInvalidParallelism is returned when the fetch parallelism is not positive.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be positive")

	// ErrInvalidRate is returned when requestsPerSecond is negative.
	ErrInvalidRate = errors.New("invalid requestsPerSecond: must be non-negative")

	// ErrInvalidOccurrence is returned when maxLemmaOccurrencePercentage is
	// outside (0, 1].
	ErrInvalidOccurrence = errors.New("invalid maxLemmaOccurrencePercentage: must be in (0, 1]")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
