package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Resolver Tests ---

func TestResolve(t *testing.T) {
	tests := []struct {
		host, link, want string
	}{
		{"http://x.com", "http://x.com/a", "http://x.com/a"},
		{"http://x.com", "https://other.com/a/b", "https://other.com/a/b"},
		{"http://x.com", "/a/b", "http://x.com/a/b"},
		{"http://x.com", "a/b", "http://x.com/a/b"},
		{"http://x.com", "http://x.com", "http://x.com/http://x.com"},
		{"http://x.com", "a?b=1#c", "http://x.com/a?b=1#c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.host, tt.link), "Resolve(%q, %q)", tt.host, tt.link)
	}
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(4)
	assert.True(t, d.MarkSeen("http://x.com/a"))
	assert.False(t, d.MarkSeen("http://x.com/a"))
	assert.True(t, d.MarkSeen("http://x.com/a/"))
	assert.Equal(t, 2, d.Count())
}

// --- Engine Tests ---

const homepageHTML = `<html><body>
<div class="news"><a href="/news/1">Uno</a></div>
<div class="news"><a href="/news/1">Uno (repetido)</a></div>
<div class="news"><a href="/news/2">Dos</a></div>
</body></html>`

type testSite struct {
	srv         *httptest.Server
	home        string
	homeHits    atomic.Int64
	articleHits atomic.Int64
	articles    map[string]string
	status      map[string]int
}

func newTestSite(t *testing.T, home string) *testSite {
	t.Helper()
	s := &testSite{
		home: home,
		articles: map[string]string{
			"/news/1": `<html><body><h1>Noticia uno</h1><div class="body">Cuerpo uno</div></body></html>`,
			"/news/2": `<html><body><h1>Noticia dos</h1><div class="body"></div></body></html>`,
		},
		status: map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := s.status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/" {
			s.homeHits.Add(1)
			w.Write([]byte(s.home))
			return
		}
		s.articleHits.Add(1)
		body, ok := s.articles[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func testConfig(siteURL string, concurrency int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 2 * time.Second
	cfg.Fetcher.RetryDelay = time.Millisecond
	cfg.Fetcher.MaxRetries = 1
	cfg.Engine.Concurrency = concurrency
	cfg.NewsSites["testnews"] = config.SiteConfig{
		URL: siteURL,
		Queries: map[string]string{
			config.QueryHomepageArticleLinks: ".news a",
			config.QueryArticleTitle:         "h1",
			config.QueryArticleBody:          ".body",
		},
	}
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	f, err := fetcher.New(&cfg.Fetcher, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return New(cfg, f, testLogger)
}

func TestRunSkipsEmptyBodies(t *testing.T) {
	site := newTestSite(t, homepageHTML)
	e := newTestEngine(t, testConfig(site.srv.URL, 1))

	res, err := e.Run(context.Background(), "testnews")
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, types.ArticleRecord{
		URL:   site.srv.URL + "/news/1",
		Title: "Noticia uno",
		Body:  "Cuerpo uno",
	}, res.Records[0])

	assert.Equal(t, int64(2), res.Stats.LinksFound.Load())
	assert.Equal(t, int64(2), res.Stats.ArticlesFetched.Load())
	assert.Equal(t, int64(1), res.Stats.EmptyBody.Load())
	assert.Equal(t, int64(1), res.Stats.RecordsKept.Load())
	assert.Equal(t, "testnews", res.Site.ID)
}

func TestRunSkipsFailedArticles(t *testing.T) {
	site := newTestSite(t, homepageHTML+`<div class="news"><a href="/news/3">Tres</a></div><div class="news"><a href="broken">Roto</a></div>`)
	site.articles["/news/3"] = `<html><body><h1>Tres</h1><div class="body">Cuerpo tres</div></body></html>`
	site.status["/news/1"] = http.StatusInternalServerError

	e := newTestEngine(t, testConfig(site.srv.URL, 1))

	res, err := e.Run(context.Background(), "testnews")
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, site.srv.URL+"/news/3", res.Records[0].URL)
	assert.Equal(t, int64(2), res.Stats.FetchFailed.Load())
}

func TestRunHomepageFailureIsFatal(t *testing.T) {
	site := newTestSite(t, homepageHTML)
	site.status["/"] = http.StatusServiceUnavailable

	e := newTestEngine(t, testConfig(site.srv.URL+"/", 1))

	res, err := e.Run(context.Background(), "testnews")
	require.Error(t, err)
	assert.Nil(t, res)

	var fetchErr *types.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, types.ErrMaxRetries)
}

func TestRunUnknownSite(t *testing.T) {
	site := newTestSite(t, homepageHTML)
	e := newTestEngine(t, testConfig(site.srv.URL, 1))

	_, err := e.Run(context.Background(), "nope")
	require.Error(t, err)

	var cfgErr *types.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, types.ErrUnknownSite)
	assert.Equal(t, int64(0), site.homeHits.Load(), "no I/O before configuration is validated")
}

func TestRunConcurrentMatchesSequential(t *testing.T) {
	site := newTestSite(t, "")
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/news/%02d", i+10)
		site.home += `<div class="news"><a href="` + path + `">x</a></div>`
		site.articles[path] = `<html><body><h1>T</h1><div class="body">B ` + path + `</div></body></html>`
	}

	seq, err := newTestEngine(t, testConfig(site.srv.URL, 1)).Run(context.Background(), "testnews")
	require.NoError(t, err)

	e := newTestEngine(t, testConfig(site.srv.URL, 8))
	var calls atomic.Int64
	e.OnProgress = func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 20, total)
	}
	par, err := e.Run(context.Background(), "testnews")
	require.NoError(t, err)

	assert.Len(t, par.Records, 20)
	assert.Equal(t, seq.Records, par.Records)
	assert.Equal(t, int64(20), calls.Load())
}

func TestRunDuplicateResolvedLinks(t *testing.T) {
	site := newTestSite(t, "")
	// Relative and absolute forms of the same article.
	site.home = `<div class="news"><a href="/news/1">a</a><a href="` + site.srv.URL + `/news/1">b</a></div>`

	res, err := newTestEngine(t, testConfig(site.srv.URL, 1)).Run(context.Background(), "testnews")
	require.NoError(t, err)

	assert.Len(t, res.Records, 1)
	assert.Equal(t, int64(1), site.articleHits.Load())
	assert.Equal(t, int64(1), res.Stats.DuplicateLinks.Load())
}

func TestRunCancelled(t *testing.T) {
	site := newTestSite(t, homepageHTML)
	e := newTestEngine(t, testConfig(site.srv.URL, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, "testnews")
	require.Error(t, err)
}
