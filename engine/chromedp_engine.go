package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/use-agent/fedscrape/config"
)

// ChromedpSession drives a single tab on an already running browser
// through chromedp.
type ChromedpSession struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
}

// NewChromedpSession attaches to the browser behind wsURL and opens the tab
// the whole run will reuse. chromedp connects lazily, so the setup actions
// are run here to surface an unreachable endpoint at startup.
func NewChromedpSession(wsURL string, cfg config.BrowserConfig) (*ChromedpSession, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), wsURL, chromedp.NoModifyURL)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	setup := []chromedp.Action{network.Enable()}
	if len(cfg.Headers) > 0 {
		headers := make(network.Headers, len(cfg.Headers))
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		setup = append(setup, network.SetExtraHTTPHeaders(headers))
	}
	if cfg.Stealth {
		setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
	}

	if err := chromedp.Run(tabCtx, setup...); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("attach to browser: %w", err)
	}

	slog.Debug("chromedp session ready", "wsURL", wsURL, "stealth", cfg.Stealth)

	return &ChromedpSession{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		cfg:         cfg,
	}, nil
}

func (s *ChromedpSession) Name() string { return NameChromedp }

// run executes actions on the tab. chromedp needs its own context tree, so
// the caller's ctx is linked in for cancellation only. Deriving from tabCtx
// with WithCancel/WithTimeout never closes the tab.
func (s *ChromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tabCtx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavigationTimeout, chromedp.Navigate(url))
}

func (s *ChromedpSession) Reload(ctx context.Context) error {
	return s.run(ctx, s.cfg.NavigationTimeout, chromedp.Reload())
}

func (s *ChromedpSession) Section(ctx context.Context, q SectionQuery) (Section, error) {
	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.BySearch}
	if s.cfg.SectionWait <= 0 {
		opts = append(opts, chromedp.AtLeast(0))
	}

	err := s.run(ctx, s.cfg.SectionWait, chromedp.Nodes(q.XPath(), &nodes, opts...))
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrSectionNotFound, s.cfg.SectionWait)
		}
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrSectionNotFound
	}
	return &chromedpSection{s: s, node: nodes[0], q: q}, nil
}

// Close closes the tab and drops the connection. Cancelling a remote
// allocator does not stop the browser.
func (s *ChromedpSession) Close() error {
	s.tabCancel()
	s.allocCancel()
	return nil
}

type chromedpSection struct {
	s    *ChromedpSession
	node *cdp.Node
	q    SectionQuery
}

func (c *chromedpSection) Paragraphs(ctx context.Context) ([]Element, error) {
	var nodes []*cdp.Node
	err := c.s.run(ctx, 0, chromedp.Nodes(c.q.ParagraphTag, &nodes,
		chromedp.ByQueryAll,
		chromedp.FromNode(c.node),
		chromedp.AtLeast(0),
	))
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &chromedpElement{s: c.s, node: n})
	}
	return out, nil
}

type chromedpElement struct {
	s    *ChromedpSession
	node *cdp.Node
}

func (c *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := c.s.run(ctx, 0, chromedp.Text([]cdp.NodeID{c.node.NodeID}, &text, chromedp.ByNodeID))
	return text, err
}
