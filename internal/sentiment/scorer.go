// Package sentiment scores news headlines with an LLM. Scoring is best
// effort: any failure degrades to a neutral result, never an error.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/indicator"
	"github.com/gfranco/carteira/internal/llm"
)

const (
	// NeutralScore is the midpoint of the 0-10 scale, used whenever no
	// assessment is possible.
	NeutralScore = 5.0

	temperature = 0.1
	maxTokens   = 500
)

// Scorer turns a batch of headlines into a per-asset sentiment result.
// Stateless; memoization belongs to the caller.
type Scorer struct {
	provider llm.Provider
	log      *zap.Logger
}

// New creates a sentiment scorer. A nil provider is allowed and yields
// neutral results.
func New(provider llm.Provider, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{provider: provider, log: log}
}

// payload is the JSON contract the model is asked to fill.
type payload struct {
	Score   *float64 `json:"score"`
	Overall string   `json:"sentimento_geral"`
	Impact  string   `json:"impacto_resumo"`
	News    []struct {
		Index     int    `json:"indice"`
		Sentiment string `json:"sentimento"`
		Horizon   string `json:"prazo"`
	} `json:"noticias"`
}

// Score classifies the given headlines for one asset. With no headlines
// or no provider it returns the neutral result without a network call.
func (s *Scorer) Score(ctx context.Context, asset core.Asset, news []core.NewsItem) core.SentimentResult {
	if len(news) == 0 || s.provider == nil {
		return neutral(news)
	}

	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: buildPrompt(asset, news)}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.log.Warn("sentiment call failed", zap.String("ticker", asset.Ticker), zap.Error(err))
		return neutral(news)
	}

	var parsed payload
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		s.log.Warn("sentiment response not parseable", zap.String("ticker", asset.Ticker), zap.Error(err))
		return neutral(news)
	}

	byIndex := make(map[int]int, len(parsed.News))
	for i, n := range parsed.News {
		byIndex[n.Index] = i
	}

	result := core.SentimentResult{
		Score:   NeutralScore,
		Overall: core.SentimentNeutral,
		Impact:  parsed.Impact,
		News:    make([]core.NewsItem, len(news)),
	}
	if parsed.Score != nil {
		result.Score = indicator.Round1(clamp(*parsed.Score, 0, 10))
	}
	if parsed.Overall != "" {
		result.Overall = core.Sentiment(parsed.Overall)
	}

	// Model indices are 1-based; unmentioned headlines stay neutral.
	for i, item := range news {
		item.Sentiment = core.SentimentNeutral
		item.Horizon = core.HorizonShort
		if j, ok := byIndex[i+1]; ok {
			if parsed.News[j].Sentiment != "" {
				item.Sentiment = core.Sentiment(parsed.News[j].Sentiment)
			}
			if parsed.News[j].Horizon != "" {
				item.Horizon = core.Horizon(parsed.News[j].Horizon)
			}
		}
		result.News[i] = item
	}
	return result
}

func buildPrompt(asset core.Asset, news []core.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analise notícias sobre %s (%s). Responda SOMENTE em JSON:\n\n", asset.Name, asset.Ticker)
	for i, n := range news {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Title)
	}
	b.WriteString("\n{\"score\": <0-10>, \"sentimento_geral\": \"<Otimista|Pessimista|Neutro>\", " +
		"\"impacto_resumo\": \"<2 frases>\", \"noticias\": [{\"indice\": 1, " +
		"\"sentimento\": \"<Otimista|Pessimista|Neutro>\", \"prazo\": \"<Curto|Longo>\"}]}")
	return b.String()
}

// stripFences removes markdown code fences models often wrap JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func neutral(news []core.NewsItem) core.SentimentResult {
	tagged := make([]core.NewsItem, len(news))
	for i, n := range news {
		n.Sentiment = core.SentimentNeutral
		n.Horizon = core.HorizonShort
		tagged[i] = n
	}
	return core.SentimentResult{
		Score:   NeutralScore,
		Overall: core.SentimentNeutral,
		News:    tagged,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
