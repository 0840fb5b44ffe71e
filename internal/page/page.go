// Package page turns fetched markup into semantic views of a news site:
// the homepage, which lists article links, and an article, which carries a
// title and a body. Both are driven entirely by the site's selector queries.
package page

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/parser"
	"github.com/IshaanNene/newsetl/internal/types"
)

// hrefAttr is the attribute article links are read from.
const hrefAttr = "href"

var errUnexpectedStatus = errors.New("unexpected status")

// newsPage is the state shared by every view: the site it belongs to and
// the document it was built from.
type newsPage struct {
	site config.SiteConfig
	url  string
	doc  *parser.Document
}

// visit fetches rawURL and parses the response. Transport and HTTP failures
// are returned as *types.FetchError, never swallowed.
func visit(ctx context.Context, f fetcher.Fetcher, site config.SiteConfig, rawURL, tag string, logger *slog.Logger) (newsPage, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return newsPage{}, &types.FetchError{URL: rawURL, Err: err}
	}
	req.Tag = tag
	req.Site = site.ID

	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return newsPage{}, err
	}
	if !resp.IsSuccess() {
		return newsPage{}, &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        errUnexpectedStatus,
		}
	}

	doc, err := parser.Parse(resp, logger)
	if err != nil {
		return newsPage{}, &types.FetchError{URL: rawURL, Err: err}
	}

	return newsPage{site: site, url: rawURL, doc: doc}, nil
}

// URL returns the address the page was loaded from.
func (p newsPage) URL() string {
	return p.url
}

// firstText evaluates the named query and returns the first match's text.
func (p newsPage) firstText(query string) string {
	return p.doc.FirstText(p.site.Query(query))
}

// SortedLinks returns the members of a link set in lexical order.
func SortedLinks(links map[string]struct{}) []string {
	out := make([]string, 0, len(links))
	for l := range links {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
