// Package newsetl provides a public SDK for embedding the news ETL as a
// library.
//
// Example usage:
//
//	etl, err := newsetl.New(
//	    newsetl.WithSite("elpais", "https://elpais.com",
//	        "h2.c_t a", "h1.a_t", "div.a_c"),
//	    newsetl.WithConcurrency(4),
//	    newsetl.WithOutputDir("./data"),
//	    newsetl.WithSQLite("./data/newspapers.db"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer etl.Close()
//
//	report, err := etl.Run(ctx, "elpais")
package newsetl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/engine"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/lang"
	"github.com/IshaanNene/newsetl/internal/pipeline"
	"github.com/IshaanNene/newsetl/internal/storage"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Table is a column-ordered dataset produced by Extract and Transform.
type Table = types.Table

// Option configures an ETL.
type Option func(*config.Config)

// WithSite registers a news site with its homepage URL and the selector
// expressions for article links, titles and bodies. Expressions starting
// with "xpath:" are evaluated as XPath, everything else as CSS.
func WithSite(id, url, links, title, body string) Option {
	return func(c *config.Config) {
		c.NewsSites[id] = config.SiteConfig{
			URL: url,
			Queries: map[string]string{
				config.QueryHomepageArticleLinks: links,
				config.QueryArticleTitle:         title,
				config.QueryArticleBody:          body,
			},
		}
	}
}

// WithReadabilityFallback extracts article bodies with readability for a
// registered site when its body selector matches nothing.
func WithReadabilityFallback(id string) Option {
	return func(c *config.Config) {
		if site, ok := c.NewsSites[id]; ok {
			site.ReadabilityFallback = true
			c.NewsSites[id] = site
		}
	}
}

// WithConcurrency sets the number of article fetches in flight.
func WithConcurrency(n int) Option {
	return func(c *config.Config) { c.Engine.Concurrency = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Fetcher.RequestTimeout = d }
}

// WithRetries sets the retry budget and the base delay between attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *config.Config) {
		c.Fetcher.MaxRetries = n
		c.Fetcher.RetryDelay = delay
	}
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgents = []string{ua} }
}

// WithOutputDir sets where extract and clean tables are written.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) { c.Storage.OutputDir = dir }
}

// WithLanguage selects the stopword language used for token counts.
func WithLanguage(name string) Option {
	return func(c *config.Config) { c.Transform.Language = name }
}

// WithSQLite loads cleaned tables into the SQLite database at path.
func WithSQLite(path string) Option {
	return func(c *config.Config) {
		c.Load.Type = storage.SinkSQLite
		c.Load.DSN = path
	}
}

// WithMongoDB loads cleaned tables into a MongoDB collection.
func WithMongoDB(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Load.Type = storage.SinkMongoDB
		c.Load.DSN = uri
		c.Load.Database = database
		c.Load.Collection = collection
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// ETL is the high-level API for running extract, transform and load from Go
// code.
type ETL struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  fetcher.Fetcher
	pipeline *pipeline.Pipeline

	mu   sync.Mutex
	sink storage.Sink
}

// Report summarizes one Run.
type Report struct {
	Site        string
	Extracted   int
	Kept        int
	Loaded      int
	ExtractPath string
	CleanPath   string
	Stats       map[string]any
}

// New creates an ETL with the given options on top of the defaults.
func New(opts ...Option) (*ETL, error) {
	return newETL(config.DefaultConfig(), opts)
}

// NewFromFile creates an ETL from a YAML config file. Options override the
// file.
func NewFromFile(path string, opts ...Option) (*ETL, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newETL(cfg, opts)
}

func newETL(cfg *config.Config, opts []Option) (*ETL, error) {
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := fetcher.New(&cfg.Fetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	res, err := lang.Load(cfg.Transform.Language)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &ETL{
		cfg:      cfg,
		logger:   logger,
		fetcher:  f,
		pipeline: pipeline.New(res, logger),
	}, nil
}

// Sites returns the registered site identifiers in sorted order.
func (e *ETL) Sites() []string {
	return e.cfg.SiteIDs()
}

// Extract scrapes one site and writes its articles table. It returns the
// table, the path written, and the run statistics.
func (e *ETL) Extract(ctx context.Context, site string) (*Table, string, map[string]any, error) {
	res, err := engine.New(e.cfg, e.fetcher, e.logger).Run(ctx, site)
	if err != nil {
		return nil, "", nil, err
	}
	w := storage.NewDatasetWriter(e.cfg.Storage.OutputDir, e.cfg.Storage.Extension, e.logger)
	table, path, err := w.Write(res.Site.ID, res.Stats.StartTime, res.Records)
	if err != nil {
		return nil, "", nil, err
	}
	return table, path, res.Stats.Snapshot(), nil
}

// Transform cleans an extracted table. The input is not modified.
func (e *ETL) Transform(ctx context.Context, table *Table) (*Table, error) {
	return e.pipeline.Transform(ctx, table)
}

// Load upserts a cleaned table into the configured destination. The
// destination is opened on first use and stays open until Close.
func (e *ETL) Load(ctx context.Context, table *Table) (int, error) {
	e.mu.Lock()
	if e.sink == nil {
		sink, err := storage.NewSink(ctx, &e.cfg.Load, e.logger)
		if err != nil {
			e.mu.Unlock()
			return 0, err
		}
		e.sink = sink
	}
	sink := e.sink
	e.mu.Unlock()

	return sink.Load(ctx, table)
}

// Run extracts, transforms and loads one site.
func (e *ETL) Run(ctx context.Context, site string) (*Report, error) {
	table, path, stats, err := e.Extract(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", site, err)
	}

	cleaned, err := e.Transform(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", site, err)
	}
	cleanPath := filepath.Join(filepath.Dir(path), pipeline.CleanPrefix+filepath.Base(path))
	if err := storage.WriteTable(cleanPath, cleaned); err != nil {
		return nil, fmt.Errorf("transform %s: %w", site, err)
	}

	n, err := e.Load(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", site, err)
	}

	return &Report{
		Site:        site,
		Extracted:   table.Len(),
		Kept:        cleaned.Len(),
		Loaded:      n,
		ExtractPath: path,
		CleanPath:   cleanPath,
		Stats:       stats,
	}, nil
}

// Close releases the fetcher and the load destination.
func (e *ETL) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if e.sink != nil {
		firstErr = e.sink.Close()
		e.sink = nil
	}
	if err := e.fetcher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
