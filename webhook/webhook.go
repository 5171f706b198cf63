// Package webhook posts the run summary to an HTTP endpoint when a run
// finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/fedscrape/config"
)

// EventRunCompleted is sent once per run, interrupted runs included.
const EventRunCompleted = "run.completed"

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Fedscrape-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewRunCompleted builds the completion event for runID.
func NewRunCompleted(runID string, summary any) *Event {
	return &Event{
		Type:      EventRunCompleted,
		JobID:     runID,
		Timestamp: time.Now().Unix(),
		Data:      summary,
	}
}

// Sign returns the signature header value for body: "sha256=<hex>".
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "fedscrape-webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notify delivers event to cfg.URL once and logs the outcome. It does
// nothing when no URL is configured. Failures are logged, not returned.
func Notify(ctx context.Context, cfg config.WebhookConfig, event *Event) {
	if cfg.URL == "" {
		return
	}
	if err := Deliver(ctx, cfg.URL, cfg.Secret, event); err != nil {
		slog.Warn("webhook delivery failed",
			"url", cfg.URL,
			"event", event.Type,
			"job_id", event.JobID,
			"error", err,
		)
		return
	}
	slog.Info("webhook delivered",
		"url", cfg.URL,
		"event", event.Type,
		"job_id", event.JobID,
	)
}
