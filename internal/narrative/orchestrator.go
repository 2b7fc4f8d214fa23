// Package narrative generates the two-stage portfolio report text and
// the standalone earnings assessment.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/llm"
)

// DefaultStageDelay spaces the two narrative calls far enough apart to
// stay under free-tier rate limits.
const DefaultStageDelay = 20 * time.Second

const (
	analystSystemPrompt = "Você é um Analista de Mercado Sênior (CNPI) com 15 anos de " +
		"experiência na B3. Sua missão é analisar carteiras de ações brasileiras e " +
		"suas correlações macro."

	advisorSystemPrompt = "Você é um Consultor de Investimentos (CFP/CEA) especialista " +
		"em carteiras brasileiras. Sua missão é transformar análises de mercado em " +
		"recomendações acionáveis."

	narrativeTemperature = 0.3
	narrativeMaxTokens   = 1024

	assessTemperature = 0.3
	assessMaxTokens   = 600
)

// Orchestrator runs the report narrative calls in strict sequence.
type Orchestrator struct {
	provider llm.Provider
	clock    Clock
	delay    time.Duration
	log      *zap.Logger
}

// New creates an orchestrator with the given inter-stage delay. A
// non-positive delay falls back to the default.
func New(provider llm.Provider, delay time.Duration, log *zap.Logger) *Orchestrator {
	if delay <= 0 {
		delay = DefaultStageDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		provider: provider,
		clock:    systemClock{},
		delay:    delay,
		log:      log,
	}
}

// Generate produces the analysis and recommendation sections. The second
// call consumes the first call's output verbatim, so the stages never
// run concurrently. Any failure aborts with a wrapped LLM error.
func (o *Orchestrator) Generate(ctx context.Context, quotes []core.QuoteSnapshot, correlations []core.CorrelationPoint) (*core.Report, error) {
	if o.provider == nil {
		return nil, core.ErrLLMMissing
	}

	quotesJSON, err := json.Marshal(quotes)
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("serializing quotes: %w", err))
	}
	corrJSON, err := json.Marshal(correlations)
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("serializing correlations: %w", err))
	}

	analysisPrompt := fmt.Sprintf(
		"Carteira: %s\n\nCorrelações (IBOV/Dólar/BTC): %s\n\n"+
			"Escreva análise com: 1.Panorama geral 2.Maiores altas 3.Maiores baixas "+
			"4.Impacto do dólar e BTC na carteira 5.Perspectivas. Máximo 400 palavras.",
		quotesJSON, corrJSON)

	o.log.Info("generating market analysis", zap.Int("assets", len(quotes)))
	analysis, err := o.chat(ctx, analystSystemPrompt, analysisPrompt)
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("analysis stage: %w", err))
	}

	if err := o.clock.Sleep(ctx, o.delay); err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("between stages: %w", err))
	}

	recPrompt := fmt.Sprintf(
		"Análise: %s\n\n"+
			"Crie recomendações: 1.Disclaimer 2.Resumo executivo 3.Perfil Conservador "+
			"4.Perfil Moderado 5.Perfil Arrojado 6.Top 3 ativos "+
			"7.Cenário otimista e pessimista. Máximo 450 palavras.",
		analysis)

	o.log.Info("generating recommendations")
	recommendations, err := o.chat(ctx, advisorSystemPrompt, recPrompt)
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, fmt.Errorf("recommendation stage: %w", err))
	}

	return &core.Report{
		Analysis:        analysis,
		Recommendations: recommendations,
		GeneratedAt:     o.clock.Now(),
	}, nil
}

// AssessEarnings evaluates the latest quarterly results by horizon. It is
// best effort and returns an empty string when no assessment is possible.
func (o *Orchestrator) AssessEarnings(ctx context.Context, results []core.EarningsComparison) string {
	if len(results) == 0 || o.provider == nil {
		return ""
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.RevenueDelta.Known && r.IncomeDelta.Known {
			lines = append(lines, fmt.Sprintf("%s (%s): receita %+.1f%% vs trim. anterior, lucro %+.1f%%",
				r.Ticker, r.Name, r.RevenueDelta.Pct, r.IncomeDelta.Pct))
		} else {
			lines = append(lines, fmt.Sprintf("%s (%s): dados insuficientes", r.Ticker, r.Name))
		}
	}

	prompt := fmt.Sprintf(
		"Analise os resultados trimestrais abaixo e escreva uma avaliação concisa em "+
			"português, com no máximo 250 palavras, estruturada em 3 parágrafos:\n\n"+
			"1. **Curto Prazo** — O que esses números significam para as ações nas próximas semanas?\n"+
			"2. **Médio Prazo** — Tendência para os próximos 2-4 trimestres?\n"+
			"3. **Longo Prazo** — Os fundamentos suportam crescimento sustentável?\n\n"+
			"Resultados:\n%s\n\n"+
			"Seja direto e use linguagem acessível para investidores pessoa física.",
		strings.Join(lines, "\n"))

	resp, err := o.provider.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: assessTemperature,
		MaxTokens:   assessMaxTokens,
	})
	if err != nil {
		o.log.Warn("earnings assessment failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

func (o *Orchestrator) chat(ctx context.Context, system, prompt string) (string, error) {
	resp, err := o.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  narrativeTemperature,
		MaxTokens:    narrativeMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
