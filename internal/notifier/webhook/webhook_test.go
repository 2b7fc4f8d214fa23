package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

func testDelivery() core.Delivery {
	return core.Delivery{
		Quotes: []core.QuoteSnapshot{
			{
				Asset:     core.Asset{Symbol: "CXSE3.SA", Ticker: "CXSE3", Name: "Caixa Seguridade"},
				Close:     15.5,
				Variation: 3.33,
				RSI:       61,
			},
		},
		Report: &core.Report{
			Analysis:        "mercado em alta",
			Recommendations: "manter",
			GeneratedAt:     time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
		PDF:      []byte("%PDF-fake"),
		Filename: "relatorio_b3_20260828.pdf",
	}
}

func TestDeliver(t *testing.T) {
	var (
		gotBody   []byte
		gotAuth   string
		gotMethod string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := New(srv.URL, map[string]string{"Authorization": "Bearer token"})
	if err := wh.Deliver(context.Background(), testDelivery()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("auth header = %q", gotAuth)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["filename"] != "relatorio_b3_20260828.pdf" {
		t.Errorf("filename = %v", payload["filename"])
	}
	if payload["analysis"] != "mercado em alta" {
		t.Errorf("analysis = %v", payload["analysis"])
	}
	quotes, ok := payload["quotes"].([]any)
	if !ok || len(quotes) != 1 {
		t.Fatalf("quotes = %v", payload["quotes"])
	}
	q := quotes[0].(map[string]any)
	if q["ticker"] != "CXSE3" {
		t.Errorf("ticker = %v", q["ticker"])
	}
}

func TestDeliver_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := New(srv.URL, nil)
	if err := wh.Deliver(context.Background(), testDelivery()); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestName(t *testing.T) {
	if got := New("http://example.com", nil).Name(); got != "webhook" {
		t.Errorf("Name() = %q", got)
	}
}
