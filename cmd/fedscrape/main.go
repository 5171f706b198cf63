package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/use-agent/fedscrape/config"
	"github.com/use-agent/fedscrape/engine"
	"github.com/use-agent/fedscrape/export"
	"github.com/use-agent/fedscrape/input"
	"github.com/use-agent/fedscrape/models"
	"github.com/use-agent/fedscrape/runner"
	"github.com/use-agent/fedscrape/scraper"
	"github.com/use-agent/fedscrape/webhook"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fedscrape",
		Short: "Scrape FedRAMP Marketplace authorization details for a list of product IDs",
		Long: `fedscrape reads FedRAMP Marketplace product IDs (one per line), opens each
product page in an already running browser, and writes the dates and
assessor listed under "Authorization Details" to a CSV or XLSX table.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidConfig, "invalid configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidConfig, "invalid configuration", err)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	runID := uuid.NewString()
	initLogger(cfg.Log, runID)
	slog.Info("fedscrape starting",
		"input", cfg.Files.Input,
		"output", cfg.Files.Output,
		"format", cfg.Files.ResolvedFormat(),
		"engine", cfg.Browser.Engine,
		"endpoint", cfg.Browser.Endpoint(),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Load identifiers ─────────────────────────────────────────
	ids, err := input.LoadIdentifiers(cfg.Files.Input)
	if err != nil {
		return err
	}

	// ── 4. Create output table ──────────────────────────────────────
	out, err := export.Create(cfg.Files.Output, cfg.Files.ResolvedFormat())
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			slog.Error("failed to close output", "path", cfg.Files.Output, "error", err)
		}
	}()
	if err := out.WriteHeader(); err != nil {
		return err
	}

	// ── 5. Open browser session ─────────────────────────────────────
	session, err := engine.Open(ctx, cfg.Browser)
	if err != nil {
		return err
	}

	// ── 6. Run ──────────────────────────────────────────────────────
	r := runner.New(session, scraper.NewExtractor(cfg.Scraper), out, runner.Options{
		RunID:    runID,
		Output:   cfg.Files.Output,
		Progress: os.Stderr,
	})
	summary, runErr := r.Run(ctx, ids)
	summary.Render(os.Stderr)

	if runErr != nil {
		slog.Error("run aborted", "code", models.CodeOf(runErr), "error", runErr)
	} else {
		slog.Info("run finished",
			"succeeded", summary.Succeeded,
			"navigationFailed", summary.NavigationFailed,
			"extractionFailed", summary.ExtractionFailed,
		)
	}

	// ── 7. Completion webhook ───────────────────────────────────────
	// Delivered even when interrupted, so detach from the signal context.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	webhook.Notify(notifyCtx, cfg.Webhook, webhook.NewRunCompleted(runID, summary))

	return runErr
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// stdout stays free; every line carries the run ID.
func initLogger(cfg config.LogConfig, runID string) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler).With("run_id", runID))
}
