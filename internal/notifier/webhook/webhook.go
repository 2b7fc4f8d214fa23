// Package webhook delivers report summaries to an HTTP endpoint as JSON.
// The PDF itself is not attached; consumers fetch it from the archive.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

const requestTimeout = 30 * time.Second

// Webhook posts one JSON payload per delivered report.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a webhook channel for the given endpoint. Extra headers
// are sent on every request, typically for authentication.
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Deliver(ctx context.Context, d core.Delivery) error {
	payload := map[string]any{
		"type":      "report",
		"filename":  d.Filename,
		"pdf_bytes": len(d.PDF),
		"quotes":    quotesPayload(d.Quotes),
	}
	if d.Report != nil {
		payload["generated_at"] = d.Report.GeneratedAt.Format(time.RFC3339)
		payload["analysis"] = d.Report.Analysis
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}
	return nil
}

func quotesPayload(quotes []core.QuoteSnapshot) []map[string]any {
	out := make([]map[string]any, len(quotes))
	for i, q := range quotes {
		out[i] = map[string]any{
			"ticker":    q.Ticker,
			"name":      q.Name,
			"close":     q.Close,
			"variation": q.Variation,
			"rsi":       q.RSI,
		}
	}
	return out
}
