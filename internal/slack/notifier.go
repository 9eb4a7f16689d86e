package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 16 * 1024
)

// Notifier delivers a report message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// DeliveryError reports a webhook response outside the 2xx range.
type DeliveryError struct {
	StatusCode int
	Body       string
}

// Error returns a user-facing delivery failure message.
func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("slack webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("slack webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Config configures webhook delivery.
type Config struct {
	WebhookURL string
	HTTPClient *http.Client
}

type webhookNotifier struct {
	httpClient *http.Client
	webhookURL string
}

// NewWebhookNotifier creates a Notifier posting to a Slack incoming webhook.
func NewWebhookNotifier(cfg Config) (Notifier, error) {
	parsed, err := url.Parse(strings.TrimSpace(cfg.WebhookURL))
	if err != nil {
		return nil, fmt.Errorf("parse webhook URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" || parsed.Host == "" {
		return nil, fmt.Errorf("webhook URL %q must be an absolute http(s) URL", cfg.WebhookURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &webhookNotifier{
		httpClient: httpClient,
		webhookURL: parsed.String(),
	}, nil
}

// Notify posts msg once. Failed deliveries are not retried.
func (n *webhookNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute slack request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			return fmt.Errorf("read slack error response: %w", readErr)
		}
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
