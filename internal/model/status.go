package model

import "fmt"

// Status is the indexing state of a site.
type Status int

const (
	// StatusIndexing means a crawl of the site is in progress.
	StatusIndexing Status = iota

	// StatusIndexed means the last crawl finished without being stopped.
	StatusIndexed

	// StatusFailed means the last crawl was stopped or the root page was
	// unreachable. Site.LastError says which.
	StatusFailed
)

// String returns the stored and serialized form of the status.
func (s Status) String() string {
	switch s {
	case StatusIndexing:
		return "INDEXING"
	case StatusIndexed:
		return "INDEXED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "INDEXING":
		return StatusIndexing, nil
	case "INDEXED":
		return StatusIndexed, nil
	case "FAILED":
		return StatusFailed, nil
	default:
		return 0, fmt.Errorf("unknown site status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so statuses appear as names
// in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
