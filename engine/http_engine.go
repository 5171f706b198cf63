package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/gocolly/colly/v2"
	"github.com/use-agent/fedscrape/config"
	"golang.org/x/net/html"
)

// HTTPSession fetches pages with a plain HTTP client (gocolly) and queries
// the server-rendered HTML with goquery/cascadia. No JavaScript runs, so
// it only finds content that is present in the initial response.
type HTTPSession struct {
	collector *colly.Collector
	current   string
	body      []byte
	doc       *goquery.Selection
	fetchErr  error
}

// NewHTTPSession builds the collector. ctx bounds every request the
// session makes.
func NewHTTPSession(ctx context.Context, cfg config.BrowserConfig) *HTTPSession {
	s := &HTTPSession{}

	c := colly.NewCollector(
		colly.UserAgent(chromeUA),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(newChromeTransport())
	if cfg.NavigationTimeout > 0 {
		c.SetRequestTimeout(cfg.NavigationTimeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		for k, v := range cfg.Headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		s.body = r.Body
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		s.doc = e.DOM
	})
	c.OnError(func(r *colly.Response, err error) {
		s.fetchErr = err
		slog.Debug("http fetch failed", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	s.collector = c
	return s
}

func (s *HTTPSession) Name() string { return NameHTTP }

func (s *HTTPSession) Navigate(ctx context.Context, url string) error {
	s.current = url
	return s.fetch(ctx)
}

func (s *HTTPSession) Reload(ctx context.Context) error {
	if s.current == "" {
		return fmt.Errorf("reload: no page loaded")
	}
	return s.fetch(ctx)
}

func (s *HTTPSession) fetch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.body, s.doc, s.fetchErr = nil, nil, nil

	if err := s.collector.Visit(s.current); err != nil {
		return err
	}
	return s.fetchErr
}

func (s *HTTPSession) Section(ctx context.Context, q SectionQuery) (Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	heading, err := cascadia.Compile(q.CSS())
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", q.CSS(), err)
	}
	if s.doc == nil {
		return nil, ErrSectionNotFound
	}

	// :containsOwn ignores case; the browser engines' XPath does not.
	headings := s.doc.FindMatcher(heading).FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(ownText(h), q.HeadingText)
	})
	container := headings.Parent().Filter(q.ContainerTag).First()
	if container.Length() == 0 {
		if needsBrowser(s.body) {
			return nil, fmt.Errorf("%w (page looks client-rendered; try a browser engine)", ErrSectionNotFound)
		}
		return nil, ErrSectionNotFound
	}
	return &httpSection{sel: container, q: q}, nil
}

// ownText concatenates the direct text children of the first node in sel.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Close is a no-op; the collector holds no connection between visits.
func (s *HTTPSession) Close() error { return nil }

type httpSection struct {
	sel *goquery.Selection
	q   SectionQuery
}

func (h *httpSection) Paragraphs(ctx context.Context) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Element
	h.sel.Find(h.q.ParagraphTag).Each(func(_ int, p *goquery.Selection) {
		out = append(out, &httpElement{sel: p})
	})
	return out, nil
}

type httpElement struct {
	sel *goquery.Selection
}

func (h *httpElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return h.sel.Text(), nil
}
