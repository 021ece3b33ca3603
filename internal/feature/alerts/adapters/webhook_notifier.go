package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"stockwatch/internal/feature/alerts/usecase"
)

// WebhookConfig holds the alert webhook settings.
type WebhookConfig struct {
	URL     string        // destination endpoint, empty disables the channel
	Channel string        // channel identifier reported in audits, "webhook" when empty
	Timeout time.Duration // per-request timeout applied when client has none
}

type webhookNotifier struct {
	cfg    WebhookConfig
	client *http.Client
}

var _ usecase.Notifier = (*webhookNotifier)(nil)

// NewWebhookNotifier creates a Notifier that posts alerts as JSON to
// the configured endpoint.
func NewWebhookNotifier(cfg WebhookConfig, client *http.Client) usecase.Notifier {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &webhookNotifier{cfg: cfg, client: client}
}

type webhookPayload struct {
	Episode string `json:"episode"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (n *webhookNotifier) Channel() string {
	if n.cfg.Channel != "" {
		return n.cfg.Channel
	}
	return "webhook"
}

func (n *webhookNotifier) Notify(ctx context.Context, episode, title, body string) error {
	payload, err := json.Marshal(webhookPayload{Episode: episode, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			slog.Warn("failed to close webhook response body", "error", cerr)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("webhook returned http %d", res.StatusCode)
	}
	return nil
}
