package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Query names every site must configure.
const (
	QueryHomepageArticleLinks = "homepage_article_links"
	QueryArticleTitle         = "article_title"
	QueryArticleBody          = "article_body"
)

// RequiredQueries lists the selector keys a SiteConfig must carry.
var RequiredQueries = []string{
	QueryHomepageArticleLinks,
	QueryArticleTitle,
	QueryArticleBody,
}

// Config is the root configuration for newsetl.
type Config struct {
	NewsSites map[string]SiteConfig `mapstructure:"news_sites" yaml:"news_sites"`
	Fetcher   FetcherConfig         `mapstructure:"fetcher"    yaml:"fetcher"`
	Engine    EngineConfig          `mapstructure:"engine"     yaml:"engine"`
	Storage   StorageConfig         `mapstructure:"storage"    yaml:"storage"`
	Transform TransformConfig       `mapstructure:"transform"  yaml:"transform"`
	Load      LoadConfig            `mapstructure:"load"       yaml:"load"`
	Logging   LoggingConfig         `mapstructure:"logging"    yaml:"logging"`
}

// SiteConfig is the static per-site configuration: where the homepage lives
// and which selector expressions pick out links, titles and bodies.
type SiteConfig struct {
	// ID is filled in from the news_sites map key.
	ID      string            `mapstructure:"-"       yaml:"-"`
	URL     string            `mapstructure:"url"     yaml:"url"`
	Queries map[string]string `mapstructure:"queries" yaml:"queries"`

	// ReadabilityFallback extracts the body with readability when the
	// article_body selector matches nothing.
	ReadabilityFallback bool `mapstructure:"readability_fallback" yaml:"readability_fallback"`
}

// Query returns the selector expression registered under name.
func (s SiteConfig) Query(name string) string {
	return s.Queries[name]
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// EngineConfig controls the extraction run.
type EngineConfig struct {
	// Concurrency is the number of article fetches in flight. 1 keeps the
	// run strictly sequential.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// StorageConfig controls where stage files are written.
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Extension string `mapstructure:"extension"  yaml:"extension"`
}

// TransformConfig controls the cleaning stage.
type TransformConfig struct {
	Language string `mapstructure:"language" yaml:"language"`
}

// LoadConfig selects the destination for cleaned tables.
type LoadConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"`
	DSN        string `mapstructure:"dsn"        yaml:"dsn"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		NewsSites: map[string]SiteConfig{},
		Fetcher: FetcherConfig{
			RequestTimeout:  30 * time.Second,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Engine: EngineConfig{
			Concurrency: 1,
		},
		Storage: StorageConfig{
			OutputDir: "./data",
			Extension: "csv",
		},
		Transform: TransformConfig{
			Language: "spanish",
		},
		Load: LoadConfig{
			Type:       "sqlite",
			DSN:        "./data/newspapers.db",
			Database:   "newsetl",
			Collection: "articles",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
