package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/llm"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	err    error
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	return c.err
}

type scriptedProvider struct {
	responses []string
	failAt    int // 1-based call number that fails, 0 = never
	calls     []llm.ChatRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.calls = append(p.calls, req)
	n := len(p.calls)
	if p.failAt == n {
		return nil, errors.New("provider down")
	}
	return &llm.ChatResponse{Content: p.responses[n-1]}, nil
}

func newTestOrchestrator(p llm.Provider, clock *fakeClock) *Orchestrator {
	o := New(p, 20*time.Second, nil)
	o.clock = clock
	return o
}

var quotes = []core.QuoteSnapshot{
	{Asset: core.Asset{Symbol: "CXSE3.SA", Ticker: "CXSE3", Name: "Caixa Seguridade"}, Close: 15.2, Variation: 1.8},
}

func TestGenerate(t *testing.T) {
	genTime := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	p := &scriptedProvider{responses: []string{"análise de mercado", "recomendações finais"}}
	clock := &fakeClock{now: genTime}

	report, err := newTestOrchestrator(p, clock).Generate(context.Background(), quotes,
		[]core.CorrelationPoint{{Name: "IBOV", Symbol: "^BVSP", Variation: 0.5, Level: 142000}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Analysis != "análise de mercado" || report.Recommendations != "recomendações finais" {
		t.Errorf("report = %+v", report)
	}
	if !report.GeneratedAt.Equal(genTime) {
		t.Errorf("GeneratedAt = %v", report.GeneratedAt)
	}
	if len(p.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(p.calls))
	}

	// Second stage consumes the first stage's output verbatim.
	if !strings.Contains(p.calls[1].Messages[0].Content, "análise de mercado") {
		t.Error("recommendation prompt missing analysis text")
	}
	if !strings.Contains(p.calls[0].Messages[0].Content, "CXSE3") {
		t.Error("analysis prompt missing portfolio data")
	}
	if !strings.Contains(p.calls[0].Messages[0].Content, "IBOV") {
		t.Error("analysis prompt missing correlations")
	}

	// Exactly one delay, between the stages.
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 20*time.Second {
		t.Errorf("sleeps = %v", clock.sleeps)
	}
}

func TestGenerate_FirstStageFails(t *testing.T) {
	p := &scriptedProvider{responses: []string{"", ""}, failAt: 1}
	clock := &fakeClock{}

	_, err := newTestOrchestrator(p, clock).Generate(context.Background(), quotes, nil)
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("err = %v, want ErrLLMFailed", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(p.calls))
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("slept %v before a failed first stage", clock.sleeps)
	}
}

func TestGenerate_CancelledDuringDelay(t *testing.T) {
	p := &scriptedProvider{responses: []string{"análise", ""}}
	clock := &fakeClock{err: context.Canceled}

	_, err := newTestOrchestrator(p, clock).Generate(context.Background(), quotes, nil)
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("err = %v, want ErrLLMFailed", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no second stage after cancellation)", len(p.calls))
	}
}

func TestGenerate_NoProvider(t *testing.T) {
	o := New(nil, 0, nil)
	if _, err := o.Generate(context.Background(), quotes, nil); !errors.Is(err, core.ErrLLMMissing) {
		t.Errorf("err = %v, want ErrLLMMissing", err)
	}
}

func TestNew_DefaultDelay(t *testing.T) {
	o := New(nil, 0, nil)
	if o.delay != DefaultStageDelay {
		t.Errorf("delay = %v", o.delay)
	}
}

func earningsFixture() []core.EarningsComparison {
	return []core.EarningsComparison{
		{
			Asset:        core.Asset{Ticker: "CXSE3", Name: "Caixa Seguridade"},
			RevenueDelta: core.Delta{Pct: 10.0, Known: true},
			IncomeDelta:  core.Delta{Pct: -5.5, Known: true},
		},
		{
			Asset: core.Asset{Ticker: "VIVA3", Name: "Vivara"},
		},
	}
}

func TestAssessEarnings(t *testing.T) {
	p := &scriptedProvider{responses: []string{"  avaliação por prazo  "}}
	got := newTestOrchestrator(p, &fakeClock{}).AssessEarnings(context.Background(), earningsFixture())
	if got != "avaliação por prazo" {
		t.Errorf("assessment = %q", got)
	}

	prompt := p.calls[0].Messages[0].Content
	if !strings.Contains(prompt, "CXSE3 (Caixa Seguridade): receita +10.0% vs trim. anterior, lucro -5.5%") {
		t.Errorf("prompt missing delta line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "VIVA3 (Vivara): dados insuficientes") {
		t.Errorf("prompt missing insufficient-data line:\n%s", prompt)
	}
	if p.calls[0].Temperature != 0.3 || p.calls[0].MaxTokens != 600 {
		t.Errorf("request params = %+v", p.calls[0])
	}
}

func TestAssessEarnings_BestEffort(t *testing.T) {
	p := &scriptedProvider{failAt: 1, responses: []string{""}}
	if got := newTestOrchestrator(p, &fakeClock{}).AssessEarnings(context.Background(), earningsFixture()); got != "" {
		t.Errorf("assessment = %q, want empty on failure", got)
	}
	if got := newTestOrchestrator(p, &fakeClock{}).AssessEarnings(context.Background(), nil); got != "" {
		t.Errorf("assessment = %q, want empty without data", got)
	}
}

func TestSystemClock_SleepCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (systemClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
