package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrUnknownSite   = errors.New("unknown news site")
	ErrMissingQuery  = errors.New("missing required selector query")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrEmptyBody     = errors.New("article has no body")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrMissingColumn = errors.New("missing column")
	ErrBodyTooLarge  = errors.New("response body too large")
)

// ConfigError is raised before any I/O when a site cannot be run as
// configured. It is always fatal.
type ConfigError struct {
	Site string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error for site %q (key=%q): %v", e.Site, e.Key, e.Err)
	}
	return fmt.Sprintf("config error for site %q: %v", e.Site, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError wraps errors that occur during fetching. Whether it is fatal is
// decided by the caller: a homepage failure aborts the run, an article
// failure only skips that article.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while reading or writing tables.
type StorageError struct {
	Backend string
	Path    string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage error (%s, %s): %v", e.Backend, e.Path, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in a transform stage.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
