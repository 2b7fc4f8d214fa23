package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

func delivery() core.Delivery {
	return core.Delivery{
		Quotes: []core.QuoteSnapshot{
			{Asset: core.Asset{Ticker: "CXSE3"}, Variation: 1.85},
			{Asset: core.Asset{Ticker: "VIVA3"}, Variation: -0.72},
		},
		Report: &core.Report{
			Analysis:    "Mercado em alta na semana com destaque para seguros.",
			GeneratedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		},
		PDF:      []byte("%PDF-1.7 fake"),
		Filename: "relatorio_b3_20260830.pdf",
	}
}

func newTestTelegram(t *testing.T, handler http.Handler) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tg := New("test-token", "12345")
	tg.baseURL = srv.URL
	return tg
}

func TestDeliver(t *testing.T) {
	var paths []string
	var messageText string
	var docFilename string
	var docBytes []byte

	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decoding message: %v", err)
			}
			messageText = payload["text"].(string)
			if payload["parse_mode"] != "Markdown" {
				t.Errorf("parse_mode = %v", payload["parse_mode"])
			}
			if payload["chat_id"] != "12345" {
				t.Errorf("chat_id = %v", payload["chat_id"])
			}
		case strings.HasSuffix(r.URL.Path, "/sendDocument"):
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parsing form: %v", err)
			}
			if got := r.FormValue("chat_id"); got != "12345" {
				t.Errorf("chat_id = %q", got)
			}
			file, header, err := r.FormFile("document")
			if err != nil {
				t.Fatalf("document part: %v", err)
			}
			defer file.Close()
			docFilename = header.Filename
			buf := make([]byte, header.Size)
			file.Read(buf)
			docBytes = buf
		}
		w.Write([]byte(`{"ok": true}`))
	}))

	if err := tg.Deliver(context.Background(), delivery()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(paths) != 2 || !strings.HasSuffix(paths[0], "/sendMessage") || !strings.HasSuffix(paths[1], "/sendDocument") {
		t.Fatalf("unexpected call sequence: %v", paths)
	}
	for _, want := range []string{"🟢 *CXSE3* +1.85%", "🔴 *VIVA3* -0.72%", "30/08/2026", "Análise"} {
		if !strings.Contains(messageText, want) {
			t.Errorf("message missing %q:\n%s", want, messageText)
		}
	}
	if docFilename != "relatorio_b3_20260830.pdf" {
		t.Errorf("filename = %q", docFilename)
	}
	if string(docBytes) != "%PDF-1.7 fake" {
		t.Errorf("document bytes = %q", docBytes)
	}
}

func TestDeliver_TruncatesLongAnalysis(t *testing.T) {
	var messageText string
	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			messageText = payload["text"].(string)
		}
		w.Write([]byte(`{"ok": true}`))
	}))

	d := delivery()
	d.Report.Analysis = strings.Repeat("ação ", 300)
	if err := tg.Deliver(context.Background(), d); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	idx := strings.Index(messageText, "*Análise:*\n")
	if idx < 0 {
		t.Fatalf("message missing analysis block:\n%s", messageText)
	}
	preview := messageText[idx+len("*Análise:*\n"):]
	if got := len([]rune(strings.TrimSuffix(preview, "..."))); got != analysisPreviewLen {
		t.Errorf("preview length = %d runes, want %d", got, analysisPreviewLen)
	}
}

func TestDeliver_MessageFailureStopsDocument(t *testing.T) {
	var calls int
	tg := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"ok": false, "description": "bad token"}`, http.StatusUnauthorized)
	}))

	if err := tg.Deliver(context.Background(), delivery()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no document after failed message)", calls)
	}
}
