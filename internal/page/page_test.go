package page

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/fetcher"
	"github.com/IshaanNene/newsetl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const homepageHTML = `<html><body>
<h2 class="headline"><a href="/news/1">Uno</a></h2>
<h2 class="headline"><a href="/news/1">Uno otra vez</a></h2>
<h2 class="headline"><a href="https://other.example/news/2">Dos</a></h2>
<h2 class="headline"><a>Sin enlace</a></h2>
<a href="/about">Acerca</a>
</body></html>`

const longReadHTML = `<html><head><title>Crónica</title></head><body>
<nav><a href="/">Portada</a> <a href="/deportes">Deportes</a></nav>
<main><article>
<h1>Crónica de la sequía</h1>
<p>La sequía que afecta al norte del país se ha convertido en la más grave de las últimas tres décadas, según los datos publicados esta semana por la comisión nacional del agua, que advierte de restricciones en varias ciudades.</p>
<p>Los agricultores de la región aseguran que las pérdidas en las cosechas de maíz y frijol superan ya la mitad de lo esperado para este año, y piden a las autoridades apoyos urgentes para sostener a las familias que dependen del campo.</p>
<p>Mientras tanto, los especialistas recomiendan reducir el consumo doméstico, reparar las fugas en la red de distribución y acelerar las obras de captación de agua de lluvia antes de que llegue la próxima temporada seca.</p>
</article></main>
<footer>Todos los derechos reservados.</footer>
</body></html>`

const articleHTML = `<html><body>
<h1 class="title">  Gran noticia  </h1>
<div class="body"><p>El cuerpo de la noticia.</p></div>
</body></html>`

func testSite() config.SiteConfig {
	return config.SiteConfig{
		ID:  "eluniversal",
		URL: "https://example.com",
		Queries: map[string]string{
			config.QueryHomepageArticleLinks: ".headline a",
			config.QueryArticleTitle:         "h1.title",
			config.QueryArticleBody:          ".body",
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(homepageHTML))
	})
	mux.HandleFunc("/news/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><h1>Solo</h1></article></body></html>`))
	})
	mux.HandleFunc("/cronica", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(longReadHTML))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T) fetcher.Fetcher {
	t.Helper()
	cfg := config.DefaultConfig().Fetcher
	cfg.RequestTimeout = 2 * time.Second
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 1
	f, err := fetcher.New(&cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestHomepageArticleLinks(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	home, err := NewHomepage(context.Background(), f, testSite(), srv.URL+"/", testLogger)
	require.NoError(t, err)

	links := home.ArticleLinks()
	assert.Len(t, links, 2)
	assert.Contains(t, links, "/news/1")
	assert.Contains(t, links, "https://other.example/news/2")
	assert.NotContains(t, links, "/about")

	assert.Equal(t, []string{"/news/1", "https://other.example/news/2"}, SortedLinks(links))
}

func TestHomepageNoMatches(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	site := testSite()
	site.Queries[config.QueryHomepageArticleLinks] = ".nothing a"

	home, err := NewHomepage(context.Background(), f, site, srv.URL+"/", testLogger)
	require.NoError(t, err)
	assert.Empty(t, home.ArticleLinks())
}

func TestArticleTitleAndBody(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	url := srv.URL + "/news/1"
	article, err := NewArticle(context.Background(), f, testSite(), url, testLogger)
	require.NoError(t, err)

	assert.Equal(t, url, article.URL())
	assert.Equal(t, "Gran noticia", article.Title())
	assert.Equal(t, "El cuerpo de la noticia.", article.Body())

	rec := article.Record()
	assert.Equal(t, types.ArticleRecord{URL: url, Title: "Gran noticia", Body: "El cuerpo de la noticia."}, rec)
	assert.NoError(t, rec.Validate())
}

func TestArticleMissingElementsAreEmpty(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	article, err := NewArticle(context.Background(), f, testSite(), srv.URL+"/empty", testLogger)
	require.NoError(t, err)

	assert.Equal(t, "", article.Title())
	assert.Equal(t, "", article.Body())
	assert.ErrorIs(t, article.Record().Validate(), types.ErrEmptyBody)
}

func TestArticleReadabilityFallback(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	tests := []struct {
		name     string
		fallback bool
		wantBody bool
	}{
		{name: "enabled fills the body", fallback: true, wantBody: true},
		{name: "disabled leaves the body empty", fallback: false, wantBody: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testSite()
			site.Queries[config.QueryArticleBody] = ".missing-body"
			site.ReadabilityFallback = tt.fallback

			article, err := NewArticle(context.Background(), f, site, srv.URL+"/cronica", testLogger)
			require.NoError(t, err)

			if tt.wantBody {
				assert.Contains(t, article.Body(), "La sequía que afecta al norte del país")
				assert.NoError(t, article.Record().Validate())
			} else {
				assert.Equal(t, "", article.Body())
				assert.ErrorIs(t, article.Record().Validate(), types.ErrEmptyBody)
			}
		})
	}
}

func TestArticleFetchFailure(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	_, err := NewArticle(context.Background(), f, testSite(), srv.URL+"/gone", testLogger)
	require.Error(t, err)

	var fetchErr *types.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestInvalidURLIsFetchError(t *testing.T) {
	f := newTestFetcher(t)

	_, err := NewHomepage(context.Background(), f, testSite(), "ftp://example.com", testLogger)
	require.Error(t, err)

	var fetchErr *types.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, types.ErrInvalidURL)
}
