// Package telegram delivers reports through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	messageTimeout  = 15 * time.Second
	documentTimeout = 30 * time.Second

	analysisPreviewLen = 500
)

// Telegram implements the Notifier interface for the Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
	baseURL  string
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{},
		baseURL:  defaultBaseURL,
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

// Deliver sends the summary message followed by the PDF document. The
// summary failing aborts the document upload.
func (t *Telegram) Deliver(ctx context.Context, d core.Delivery) error {
	if err := t.sendMessage(ctx, formatSummary(d)); err != nil {
		return err
	}
	return t.sendDocument(ctx, d.Filename, d.PDF)
}

func formatSummary(d core.Delivery) string {
	var sb strings.Builder

	generated := ""
	analysis := ""
	if d.Report != nil {
		generated = d.Report.GeneratedAt.Format("02/01/2006 às 15:04")
		analysis = d.Report.Analysis
	}

	sb.WriteString(fmt.Sprintf("📈 *Analista B3 - %s*\n\n", generated))
	for _, q := range d.Quotes {
		emoji := "🔴"
		if q.Variation > 0 {
			emoji = "🟢"
		}
		sb.WriteString(fmt.Sprintf("%s *%s* %+.2f%%\n", emoji, q.Ticker, q.Variation))
	}
	sb.WriteString(fmt.Sprintf("\n📊 *Análise:*\n%s...", truncate(analysis, analysisPreviewLen)))
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req, "sendMessage")
}

func (t *Telegram) sendDocument(ctx context.Context, filename string, pdf []byte) error {
	ctx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("chat_id", t.chatID); err != nil {
		return fmt.Errorf("telegram: building form: %w", err)
	}
	if err := mw.WriteField("caption", "📄 Relatório completo em PDF"); err != nil {
		return fmt.Errorf("telegram: building form: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename="%s"`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("telegram: building form: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return fmt.Errorf("telegram: building form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram: building form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("telegram: creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return t.do(req, "sendDocument")
}

func (t *Telegram) do(req *http.Request, method string) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: %s error (status %d): %v", method, resp.StatusCode, result)
	}
	return nil
}
