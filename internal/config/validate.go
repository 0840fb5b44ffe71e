package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/IshaanNene/newsetl/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.MaxRetries > 10 {
		return fmt.Errorf("fetcher.max_retries must be <= 10, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryDelay < 0 {
		return fmt.Errorf("fetcher.retry_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be >= 1, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.Concurrency > 100 {
		return fmt.Errorf("engine.concurrency must be <= 100, got %d", cfg.Engine.Concurrency)
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must be set")
	}
	if cfg.Storage.Extension == "" {
		return fmt.Errorf("storage.extension must be set")
	}

	if cfg.Transform.Language != "spanish" {
		return fmt.Errorf("transform.language %q is not supported (valid: spanish)", cfg.Transform.Language)
	}

	validLoadTypes := map[string]bool{
		"sqlite": true, "mongodb": true,
	}
	if !validLoadTypes[cfg.Load.Type] {
		return fmt.Errorf("load.type %q is not supported (valid: sqlite, mongodb)", cfg.Load.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// SiteIDs returns the configured site identifiers in sorted order.
func (c *Config) SiteIDs() []string {
	ids := make([]string, 0, len(c.NewsSites))
	for id := range c.NewsSites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Site returns the configuration for id, or a *types.ConfigError when the id
// is unknown or the site is missing a required query. Ids match
// case-insensitively, since viper lowercases the keys of a config file; the
// returned SiteConfig carries the id as stored.
func (c *Config) Site(id string) (SiteConfig, error) {
	key := id
	site, ok := c.NewsSites[key]
	if !ok {
		key = strings.ToLower(id)
		site, ok = c.NewsSites[key]
	}
	if !ok {
		return SiteConfig{}, &types.ConfigError{Site: id, Err: types.ErrUnknownSite}
	}
	site.ID = key
	if err := ValidateSite(site); err != nil {
		return SiteConfig{}, err
	}
	return site, nil
}

// ValidateSite checks that a site has a usable base URL and every required
// selector query.
func ValidateSite(site SiteConfig) error {
	if err := ValidateURL(site.URL); err != nil {
		return &types.ConfigError{Site: site.ID, Key: "url", Err: err}
	}
	for _, key := range RequiredQueries {
		if site.Queries[key] == "" {
			return &types.ConfigError{Site: site.ID, Key: key, Err: types.ErrMissingQuery}
		}
	}
	return nil
}

// ValidateURL checks if a URL string is valid for fetching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", types.ErrInvalidURL)
	}
	return nil
}
