package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/fedscrape/config"
	"github.com/use-agent/fedscrape/models"
)

// Open returns the session selected by cfg.Engine. Browser engines resolve
// the DevTools websocket URL of the endpoint at cfg.Endpoint() first; an
// unreachable endpoint is reported as BROWSER_UNREACHABLE.
func Open(ctx context.Context, cfg config.BrowserConfig) (Session, error) {
	switch cfg.Engine {
	case NameHTTP:
		return NewHTTPSession(ctx, cfg), nil
	case NameRod, NameChromedp, "":
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown engine %q", cfg.Engine), nil)
	}

	wsURL, err := launcher.ResolveURL(cfg.Endpoint())
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnreachable,
			fmt.Sprintf("no browser automation endpoint at %s", cfg.Endpoint()), err)
	}
	slog.Info("browser endpoint resolved", "endpoint", cfg.Endpoint(), "wsURL", wsURL)

	var s Session
	if cfg.Engine == NameChromedp {
		s, err = NewChromedpSession(wsURL, cfg)
	} else {
		s, err = NewRodSession(wsURL, cfg)
	}
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnreachable,
			"failed to open browser session", err)
	}
	return s, nil
}
