package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/fedscrape/config"
	"github.com/ysmood/gson"
)

// RodSession drives a single tab on an already running browser through
// go-rod.
//
// Page setup order matters: stealth JS, extra headers and the hijack
// router only apply to navigations that happen after they are installed,
// so all three are set up once in NewRodSession before the first Navigate.
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	cancel  context.CancelFunc
	cfg     config.BrowserConfig
}

// NewRodSession connects to the browser behind controlURL and opens the tab
// the whole run will reuse.
func NewRodSession(controlURL string, cfg config.BrowserConfig) (*RodSession, error) {
	// The connection lives for the whole run; it is not tied to the
	// caller's context so an interrupt can still close the tab cleanly.
	connCtx, cancel := context.WithCancel(context.Background())

	browser := rod.New().ControlURL(controlURL).Context(connCtx)
	if err := browser.Connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if len(cfg.Headers) > 0 {
		if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(cfg.Headers),
		}).Call(page); hdrErr != nil {
			slog.Warn("failed to set extra headers", "error", hdrErr)
		}
	}

	router := setupHijack(page, cfg.BlockedResourceTypes, cfg.BlockAds)

	slog.Debug("rod session ready", "controlURL", controlURL, "stealth", cfg.Stealth)

	return &RodSession{
		browser: browser,
		page:    page,
		router:  router,
		cancel:  cancel,
		cfg:     cfg,
	}, nil
}

func (s *RodSession) Name() string { return NameRod }

// bind propagates ctx (plus the optional navigation deadline) to the page.
func (s *RodSession) bind(ctx context.Context) (*rod.Page, context.CancelFunc) {
	if s.cfg.NavigationTimeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		return s.page.Context(ctx), cancel
	}
	return s.page.Context(ctx), func() {}
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *RodSession) Reload(ctx context.Context) error {
	p, cancel := s.bind(ctx)
	defer cancel()

	if err := p.Reload(); err != nil {
		return err
	}
	return p.WaitLoad()
}

// Section polls for the container until it appears or SectionWait elapses.
// With a zero SectionWait it checks the current DOM once.
func (s *RodSession) Section(ctx context.Context, q SectionQuery) (Section, error) {
	if s.cfg.SectionWait <= 0 {
		els, err := s.page.Context(ctx).ElementsX(q.XPath())
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			return nil, ErrSectionNotFound
		}
		return &rodSection{el: els.First(), q: q}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.SectionWait)
	defer cancel()

	el, err := s.page.Context(waitCtx).ElementX(q.XPath())
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrSectionNotFound, s.cfg.SectionWait)
		}
		return nil, err
	}
	return &rodSection{el: el.Context(ctx), q: q}, nil
}

// Close stops request interception and closes the tab. The browser process
// is not ours and keeps running.
func (s *RodSession) Close() error {
	defer s.cancel()
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			slog.Debug("hijack router stop failed", "error", err)
		}
	}
	return s.page.Close()
}

type rodSection struct {
	el *rod.Element
	q  SectionQuery
}

func (r *rodSection) Paragraphs(ctx context.Context) ([]Element, error) {
	els, err := r.el.Context(ctx).Elements(r.q.ParagraphTag)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

type rodElement struct {
	el *rod.Element
}

func (r *rodElement) Text(ctx context.Context) (string, error) {
	return r.el.Context(ctx).Text()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
