// Package email delivers reports over SMTP with the PDF attached.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/gfranco/carteira/internal/core"
)

const analysisPreviewLen = 800

// Email implements the Notifier interface for SMTP email. Port 465
// implicit TLS, the flavor Gmail and most Brazilian providers expect.
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	send func(ctx context.Context, addr string, msg []byte) error
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) *Email {
	e := &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
	e.send = e.sendTLS
	return e
}

func (e *Email) Name() string { return "email" }

// Deliver sends the HTML summary with the PDF attached.
func (e *Email) Deliver(ctx context.Context, d core.Delivery) error {
	msg, err := e.buildMessage(d)
	if err != nil {
		return fmt.Errorf("email: building message: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	if err := e.send(ctx, addr, msg); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}

const boundary = "carteira-report-boundary"

func (e *Email) buildMessage(d core.Delivery) ([]byte, error) {
	generated := ""
	analysis := ""
	if d.Report != nil {
		generated = d.Report.GeneratedAt.Format("02/01/2006 às 15:04")
		analysis = d.Report.Analysis
	}

	subject := mime.QEncoding.Encode("UTF-8", fmt.Sprintf("📊 Carteira Inteligente - Relatório Semanal - %s", generated))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", e.from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(e.to, ","))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	// HTML body.
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	buf.WriteString(formatHTML(d.Quotes, generated, analysis))
	buf.WriteString("\r\n")

	// PDF attachment.
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", d.Filename)

	encoded := base64.StdEncoding.EncodeToString(d.PDF)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

func formatHTML(quotes []core.QuoteSnapshot, generated, analysis string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2>📊 Carteira Inteligente - %s</h2><hr>\n", generated)
	for _, q := range quotes {
		emoji, color := "🔴", "#ef4444"
		if q.Variation > 0 {
			emoji, color = "🟢", "#22c55e"
		}
		fmt.Fprintf(&sb, `<p>%s <b>%s</b>: <span style="color:%s">%+.2f%%</span></p>`+"\n",
			emoji, q.Ticker, color, q.Variation)
	}
	fmt.Fprintf(&sb, "<hr><h3>Análise</h3><p>%s...</p>\n", truncate(analysis, analysisPreviewLen))
	sb.WriteString("<p style='color:#666;font-size:12px'>Relatório informativo. Não é consultoria financeira.</p>")
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sendTLS delivers over an implicit-TLS connection, as required on port
// 465 where STARTTLS is not offered.
func (e *Email) sendTLS(ctx context.Context, addr string, msg []byte) error {
	dialer := tls.Dialer{Config: &tls.Config{ServerName: e.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if e.username != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range e.to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}
	return client.Quit()
}
