// Package runner drives a session through the identifier list, one
// product at a time, writing a row for every identifier.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/fedscrape/engine"
	"github.com/use-agent/fedscrape/export"
	"github.com/use-agent/fedscrape/models"
	"github.com/use-agent/fedscrape/scraper"
)

// Options carries the run metadata reported in progress lines and the
// summary.
type Options struct {
	RunID    string
	Output   string
	Progress io.Writer // human-readable progress lines; nil discards them
}

// Runner owns the session for the duration of one run.
type Runner struct {
	session   engine.Session
	extractor *scraper.Extractor
	writer    export.Writer
	opts      Options
}

// New creates a Runner. The header row must already be written.
func New(session engine.Session, extractor *scraper.Extractor, writer export.Writer, opts Options) *Runner {
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Runner{
		session:   session,
		extractor: extractor,
		writer:    writer,
		opts:      opts,
	}
}

// Run processes ids in order and closes the session when it returns.
//
// Per-identifier failures become placeholder rows and never stop the run.
// Run returns an error only when a row cannot be written or ctx is done
// before every identifier was started. The summary is returned in every
// case.
func (r *Runner) Run(ctx context.Context, ids []string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID:  r.opts.RunID,
		Engine: r.session.Name(),
		Output: r.opts.Output,
		Total:  len(ids),
	}
	defer func() {
		sum.Elapsed = time.Since(start)
		if err := r.session.Close(); err != nil {
			slog.Warn("failed to close browser session", "error", err)
		}
	}()

	r.printf("Found %d IDs to process", len(ids))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			sum.Interrupted = true
			return sum, models.NewScrapeError(models.ErrCodeInterrupted,
				fmt.Sprintf("stopped after %d of %d IDs", i, len(ids)), err)
		}

		r.printf("[%d/%d] Processing ID: %s", i+1, len(ids), id)
		if err := r.processOne(ctx, id, sum); err != nil {
			return sum, err
		}
		sum.Processed++
	}

	r.printf("Scraping completed. Results saved to %s", r.opts.Output)
	return sum, nil
}

// processOne extracts id and writes its row. Only a write failure is
// returned.
func (r *Runner) processOne(ctx context.Context, id string, sum *Summary) error {
	rec, err := r.extractor.Extract(ctx, r.session, id)
	switch {
	case err == nil:
		if werr := r.writer.WriteRecord(rec); werr != nil {
			return werr
		}
		sum.Succeeded++
		r.printf("Successfully scraped data for ID: %s", id)

	case models.CodeOf(err) == models.ErrCodeNavigation:
		slog.Debug("navigation failed", "id", id, "error", err)
		if werr := r.writer.WriteNavigationError(id); werr != nil {
			return werr
		}
		sum.NavigationFailed++
		r.printf("Error navigating to ID %s: %s", id, models.Describe(err))

	default:
		slog.Debug("extraction failed", "id", id, "code", models.CodeOf(err), "error", err)
		if werr := r.writer.WriteError(id, err); werr != nil {
			return werr
		}
		sum.ExtractionFailed++
		r.printf("Error processing ID %s: %s", id, models.Describe(err))
	}
	return nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.opts.Progress, format+"\n", args...)
}
