package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/fedscrape/config"
)

var authQuery = SectionQuery{
	HeadingTag:   "h3",
	HeadingText:  "Authorization Details",
	ContainerTag: "div",
	ParagraphTag: "p",
}

const productPage = `<!DOCTYPE html>
<html><head><title>Product</title></head><body>
<div class="overview"><h3>Overview</h3><p>Independent Assessor: Not This One</p></div>
<section><h3>Authorization Details</h3><p>ignored: parent is not a div</p></section>
<div class="auth">
  <h3>Authorization Details</h3>
  <p>FedRAMP Ready: 01/02/2020</p>
  <p>Independent Assessor: <a href="/assessors/1">Coalfire</a></p>
</div>
</body></html>`

func newProductServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/products/GOOD":
			_, _ = w.Write([]byte(productPage))
		case "/products/EMPTY":
			_, _ = w.Write([]byte(`<html><body><div><h3>Something else</h3></div></body></html>`))
		case "/products/SPA":
			_, _ = w.Write([]byte(`<html><body><div id="root"></div><script src="/app.js"></script></body></html>`))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSession_SectionParagraphs(t *testing.T) {
	srv := newProductServer(t, nil)
	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/GOOD"))

	section, err := s.Section(ctx, authQuery)
	require.NoError(t, err)

	paragraphs, err := section.Paragraphs(ctx)
	require.NoError(t, err)
	require.Len(t, paragraphs, 2)

	first, err := paragraphs[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FedRAMP Ready: 01/02/2020", first)

	second, err := paragraphs[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Independent Assessor: Coalfire", second)
}

func TestHTTPSession_ReloadRefetches(t *testing.T) {
	var hits atomic.Int32
	srv := newProductServer(t, &hits)
	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})

	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/GOOD"))
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, int32(2), hits.Load())

	_, err := s.Section(ctx, authQuery)
	assert.NoError(t, err)
}

func TestHTTPSession_ReloadWithoutPage(t *testing.T) {
	s := NewHTTPSession(context.Background(), config.BrowserConfig{})
	assert.Error(t, s.Reload(context.Background()))
}

func TestHTTPSession_NavigateNotFound(t *testing.T) {
	srv := newProductServer(t, nil)
	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})

	assert.Error(t, s.Navigate(ctx, srv.URL+"/products/MISSING"))
}

func TestHTTPSession_SectionNotFound(t *testing.T) {
	srv := newProductServer(t, nil)
	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})

	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/EMPTY"))
	_, err := s.Section(ctx, authQuery)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestHTTPSession_SectionNotFoundOnSPAShell(t *testing.T) {
	srv := newProductServer(t, nil)
	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})

	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/SPA"))
	_, err := s.Section(ctx, authQuery)
	require.ErrorIs(t, err, ErrSectionNotFound)
	assert.Contains(t, err.Error(), "client-rendered")
}

func TestHTTPSession_SendsConfiguredHeaders(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Trace"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{Headers: map[string]string{"X-Trace": "abc"}})
	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/GOOD"))
	assert.Equal(t, "abc", got.Load())
}

func TestHTTPSession_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewHTTPSession(context.Background(), config.BrowserConfig{})

	assert.ErrorIs(t, s.Navigate(ctx, "http://127.0.0.1:1/products/X"), context.Canceled)
}

func TestHTTPSession_SectionHeadingIsCaseSensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
<div><h3>AUTHORIZATION DETAILS</h3><p>FedRAMP Ready: 01/02/2020</p></div>
</body></html>`))
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewHTTPSession(ctx, config.BrowserConfig{})
	require.NoError(t, s.Navigate(ctx, srv.URL+"/products/UPPER"))

	_, err := s.Section(ctx, authQuery)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestOwnText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<h3>Authorization <span>ignored</span>Details</h3>`))
	require.NoError(t, err)
	assert.Equal(t, "Authorization Details", ownText(doc.Find("h3")))
	assert.Equal(t, "", ownText(doc.Find("h4")))
}
