// Package scraper turns one marketplace product page into an
// AuthorizationRecord.
package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/fedscrape/config"
	"github.com/use-agent/fedscrape/engine"
	"github.com/use-agent/fedscrape/models"
)

// AuthorizationSection locates the "Authorization Details" container: the
// parent div of the h3 carrying that heading.
var AuthorizationSection = engine.SectionQuery{
	HeadingTag:   "h3",
	HeadingText:  "Authorization Details",
	ContainerTag: "div",
	ParagraphTag: "p",
}

// Extractor scrapes product pages below a fixed base URL.
type Extractor struct {
	baseURL string
}

// NewExtractor creates an Extractor. An empty BaseURL falls back to the
// public marketplace.
func NewExtractor(cfg config.ScraperConfig) *Extractor {
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultBaseURL
	}
	return &Extractor{baseURL: base}
}

// URLFor returns the product page for id. The id is appended as is.
func (e *Extractor) URLFor(id string) string {
	return e.baseURL + id
}

// Extract navigates s to the product page of id, reloads it and parses the
// Authorization Details paragraphs.
//
// Errors are *models.ScrapeError with one of the codes NAVIGATION_FAILED,
// ELEMENT_NOT_FOUND or EXTRACTION_FAILED.
func (e *Extractor) Extract(ctx context.Context, s engine.Session, id string) (*models.AuthorizationRecord, error) {
	url := e.URLFor(id)
	log := slog.With("id", id, "url", url)

	// ── 1. Navigate ──────────────────────────────────────────────────
	if err := s.Navigate(ctx, url); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "navigation failed")
	}

	// ── 2. Reload so late-rendered content is in the DOM ─────────────
	if err := s.Reload(ctx); err != nil {
		return nil, categorizeError(err, models.ErrCodeExtraction, "reload failed")
	}

	// ── 3. Locate the section ────────────────────────────────────────
	section, err := s.Section(ctx, AuthorizationSection)
	if err != nil {
		if errors.Is(err, engine.ErrSectionNotFound) {
			log.Debug("authorization section not found", "error", err)
			return nil, models.NewScrapeError(models.ErrCodeElementNotFound,
				"Authorization Details section not found", err)
		}
		return nil, categorizeError(err, models.ErrCodeExtraction, "section lookup failed")
	}

	paragraphs, err := section.Paragraphs(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeExtraction, "reading paragraphs failed")
	}
	if len(paragraphs) == 0 {
		log.Debug("authorization section has no paragraphs")
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "no paragraphs found", nil)
	}

	// ── 4. Parse labeled values ──────────────────────────────────────
	rec := models.NewAuthorizationRecord(id)
	matched := 0
	for i, p := range paragraphs {
		text, err := p.Text(ctx)
		if err != nil {
			log.Warn("skipping unreadable paragraph", "index", i, "error", err)
			continue
		}
		if applyParagraph(rec, text) {
			matched++
		}
	}

	log.Debug("authorization details parsed", "paragraphs", len(paragraphs), "matched", matched)
	return rec, nil
}

// categorizeError wraps raw engine errors into typed ScrapeErrors. Deadline
// and cancellation keep the step's code but say what happened.
func categorizeError(err error, code, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(code, msg+" (timed out)", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(code, msg+" (canceled)", err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}
