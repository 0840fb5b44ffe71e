// Package engine drives extraction runs: it loads a site's homepage,
// resolves every article link, and collects the articles that yield a body.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/page"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Stats tracks the yield of one extraction run.
type Stats struct {
	LinksFound      atomic.Int64
	DuplicateLinks  atomic.Int64
	ArticlesFetched atomic.Int64
	FetchFailed     atomic.Int64
	EmptyBody       atomic.Int64
	RecordsKept     atomic.Int64
	StartTime       time.Time
	EndTime         time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return map[string]any{
		"links_found":      s.LinksFound.Load(),
		"duplicate_links":  s.DuplicateLinks.Load(),
		"articles_fetched": s.ArticlesFetched.Load(),
		"fetch_failed":     s.FetchFailed.Load(),
		"empty_body":       s.EmptyBody.Load(),
		"records_kept":     s.RecordsKept.Load(),
		"elapsed":          end.Sub(s.StartTime).String(),
	}
}

// Result is the outcome of one extraction run.
type Result struct {
	Site    config.SiteConfig
	Records []types.ArticleRecord
	Stats   *Stats
}

// ProgressFunc is called after each article link has been processed.
type ProgressFunc func(done, total int)

// Engine runs extractions for the configured sites.
type Engine struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
	logger  *slog.Logger

	// OnProgress, when set, is called after every article link. It may be
	// called from several goroutines at once.
	OnProgress ProgressFunc
}

// New creates an Engine that fetches pages with f.
func New(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		fetcher: f,
		logger:  logger.With("component", "engine"),
	}
}

// Run performs one extraction for siteID. Configuration problems and a
// homepage that cannot be loaded are fatal. Individual articles that fail to
// load or have no body are logged and skipped. Records are returned sorted
// by URL.
func (e *Engine) Run(ctx context.Context, siteID string) (*Result, error) {
	site, err := e.cfg.Site(siteID)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With("site", site.ID)
	stats := &Stats{StartTime: time.Now()}

	logger.Info("loading homepage", "url", site.URL)
	home, err := page.NewHomepage(ctx, e.fetcher, site, site.URL, e.logger)
	if err != nil {
		return nil, fmt.Errorf("load homepage of %s: %w", site.ID, err)
	}

	links := page.SortedLinks(home.ArticleLinks())
	stats.LinksFound.Store(int64(len(links)))
	logger.Info("article links found", "count", len(links))

	var (
		mu      sync.Mutex
		records = make([]types.ArticleRecord, 0, len(links))
		done    atomic.Int64
		seen    = NewDeduplicator(len(links))
	)

	concurrency := e.cfg.Engine.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, link := range links {
		if gctx.Err() != nil {
			break
		}

		link := link
		g.Go(func() error {
			defer e.progress(&done, len(links))

			articleURL := Resolve(site.URL, link)
			if !seen.MarkSeen(articleURL) {
				stats.DuplicateLinks.Add(1)
				logger.Debug("link resolves to an article already queued", "link", link, "url", articleURL)
				return nil
			}

			rec, ok := e.fetchArticle(gctx, site, articleURL, stats, logger)
			if !ok {
				return nil
			}

			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].URL < records[j].URL
	})
	stats.RecordsKept.Store(int64(len(records)))
	stats.EndTime = time.Now()

	logger.Info("extraction finished", "stats", stats.Snapshot())

	return &Result{Site: site, Records: records, Stats: stats}, nil
}

// fetchArticle loads one article and reports whether it produced a record
// worth keeping.
func (e *Engine) fetchArticle(ctx context.Context, site config.SiteConfig, articleURL string, stats *Stats, logger *slog.Logger) (types.ArticleRecord, bool) {
	article, err := page.NewArticle(ctx, e.fetcher, site, articleURL, e.logger)
	if err != nil {
		stats.FetchFailed.Add(1)
		var fetchErr *types.FetchError
		if errors.As(err, &fetchErr) {
			logger.Warn("skipping article: fetch failed",
				"url", articleURL,
				"status", fetchErr.StatusCode,
				"error", fetchErr.Err,
			)
		} else {
			logger.Warn("skipping article", "url", articleURL, "error", err)
		}
		return types.ArticleRecord{}, false
	}
	stats.ArticlesFetched.Add(1)

	rec := article.Record()
	if err := rec.Validate(); err != nil {
		stats.EmptyBody.Add(1)
		logger.Warn("skipping article: invalid record", "url", articleURL, "error", err)
		return types.ArticleRecord{}, false
	}
	return rec, true
}

func (e *Engine) progress(done *atomic.Int64, total int) {
	n := done.Add(1)
	if e.OnProgress != nil {
		e.OnProgress(int(n), total)
	}
}
