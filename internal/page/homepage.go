package page

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Homepage is the landing page of a news site.
type Homepage struct {
	newsPage
	logger *slog.Logger
}

// NewHomepage fetches and parses the site's homepage at rawURL.
func NewHomepage(ctx context.Context, f fetcher.Fetcher, site config.SiteConfig, rawURL string, logger *slog.Logger) (*Homepage, error) {
	p, err := visit(ctx, f, site, rawURL, types.TagHomepage, logger)
	if err != nil {
		return nil, err
	}
	return &Homepage{
		newsPage: p,
		logger:   logger.With("component", "homepage", "site", site.ID),
	}, nil
}

// ArticleLinks returns the distinct href values of every node matched by the
// homepage_article_links query. Nodes without an href are skipped. Links are
// returned as found, unresolved.
func (h *Homepage) ArticleLinks() map[string]struct{} {
	links := make(map[string]struct{})
	skipped := 0
	for _, n := range h.doc.Select(h.site.Query(config.QueryHomepageArticleLinks)) {
		href, ok := n.Attr(hrefAttr)
		if !ok {
			skipped++
			continue
		}
		links[href] = struct{}{}
	}

	h.logger.Debug("article links collected",
		"links", len(links),
		"without_href", skipped,
	)
	return links
}
