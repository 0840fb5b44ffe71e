package page

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Article is a single news article page.
type Article struct {
	newsPage
	title string
	body  string
}

// NewArticle fetches and parses the article at rawURL and evaluates the
// title and body queries once.
func NewArticle(ctx context.Context, f fetcher.Fetcher, site config.SiteConfig, rawURL string, logger *slog.Logger) (*Article, error) {
	p, err := visit(ctx, f, site, rawURL, types.TagArticle, logger)
	if err != nil {
		return nil, err
	}

	a := &Article{
		newsPage: p,
		title:    p.firstText(config.QueryArticleTitle),
		body:     p.firstText(config.QueryArticleBody),
	}

	if a.body == "" && site.ReadabilityFallback {
		a.body = readableText(p.doc.Raw(), rawURL, logger)
	}
	return a, nil
}

// Title returns the article title, or "" when the title query matched nothing.
func (a *Article) Title() string {
	return a.title
}

// Body returns the article body, or "" when the body query matched nothing.
func (a *Article) Body() string {
	return a.body
}

// Record returns the article as an extract-stage record.
func (a *Article) Record() types.ArticleRecord {
	return types.ArticleRecord{
		URL:   a.url,
		Title: a.title,
		Body:  a.body,
	}
}

// readableText runs the readability heuristics over raw markup and returns
// the main text, or "" when nothing readable is found.
func readableText(raw []byte, rawURL string, logger *slog.Logger) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(raw), u)
	if err != nil {
		logger.Debug("readability fallback failed", "url", rawURL, "error", err)
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
