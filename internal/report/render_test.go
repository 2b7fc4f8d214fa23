package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

var genTime = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

func fixtureQuotes() []core.QuoteSnapshot {
	return []core.QuoteSnapshot{
		{
			Asset:          core.Asset{Symbol: "CXSE3.SA", Ticker: "CXSE3", Name: "Caixa Seguridade"},
			Close:          15.2,
			Variation:      1.85,
			PriorVariation: -0.4,
			Volatility:     2.31,
			RSI:            61,
		},
		{
			Asset:          core.Asset{Symbol: "BTC-USD", Ticker: "BTC", Name: "Bitcoin"},
			Close:          104230.55,
			Variation:      -2.1,
			PriorVariation: 3.7,
			Volatility:     4.02,
			RSI:            47,
		},
	}
}

func fixtureReport() *core.Report {
	return &core.Report{
		Analysis:        "## Panorama\n\nMercado em **alta** na semana.\n\n### Maiores altas\nCXSE3 liderou.",
		Recommendations: "1. Disclaimer\n2. Resumo executivo",
		GeneratedAt:     genTime,
	}
}

func fixtureCorrelations() []core.CorrelationPoint {
	return []core.CorrelationPoint{
		{Name: "IBOV", Symbol: "^BVSP", Variation: 0.52, Level: 142000},
		{Name: "Dólar", Symbol: "USDBRL=X", Variation: -0.3, Level: 5.42},
	}
}

func TestRenderPDF(t *testing.T) {
	pdf, err := NewRenderer(nil).RenderPDF(fixtureQuotes(), fixtureReport(), fixtureCorrelations())
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
	if len(pdf) < 1000 {
		t.Errorf("suspiciously small document: %d bytes", len(pdf))
	}
}

func TestRenderPDF_Deterministic(t *testing.T) {
	r := NewRenderer(nil)
	a, err := r.RenderPDF(fixtureQuotes(), fixtureReport(), fixtureCorrelations())
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := r.RenderPDF(fixtureQuotes(), fixtureReport(), fixtureCorrelations())
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal inputs rendered different bytes")
	}
}

func TestRenderPDF_EmptySections(t *testing.T) {
	rep := &core.Report{GeneratedAt: genTime}
	pdf, err := NewRenderer(nil).RenderPDF(nil, rep, nil)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(genTime); got != "relatorio_b3_20260830.pdf" {
		t.Errorf("Filename = %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{15.2, "15.20"},
		{142000, "142,000.00"},
		{104230.55, "104,230.55"},
		{-1234.5, "-1,234.50"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
