package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/indicator"
	"github.com/gfranco/carteira/internal/sentiment"
)

// Run holds everything produced by one pipeline execution. Collected data
// is immutable once Execute returns; only the sentiment cache grows.
type Run struct {
	ID        string
	StartedAt time.Time

	Quotes       []core.QuoteSnapshot
	Fundamentals map[string]core.FundamentalSnapshot // by ticker
	News         map[string][]core.NewsItem          // by ticker
	Dividends    []core.Dividend
	Correlations []core.CorrelationPoint
	Earnings     []core.EarningsComparison

	Report             *core.Report
	EarningsAssessment string
	PDF                []byte
	Filename           string

	scorer *sentiment.Scorer

	mu         sync.Mutex
	sentiments map[string]core.SentimentResult
}

func newRun(id string, startedAt time.Time, scorer *sentiment.Scorer) *Run {
	return &Run{
		ID:           id,
		StartedAt:    startedAt,
		Fundamentals: make(map[string]core.FundamentalSnapshot),
		News:         make(map[string][]core.NewsItem),
		scorer:       scorer,
		sentiments:   make(map[string]core.SentimentResult),
	}
}

// SentimentFor returns the sentiment result for a ticker, scoring its
// headlines on first use. Each ticker is scored at most once per run.
func (r *Run) SentimentFor(ctx context.Context, ticker string) core.SentimentResult {
	r.mu.Lock()
	if res, ok := r.sentiments[ticker]; ok {
		r.mu.Unlock()
		return res
	}
	r.mu.Unlock()

	asset := r.asset(ticker)
	news := r.News[ticker]
	res := r.scorer.Score(ctx, asset, news)

	r.mu.Lock()
	defer r.mu.Unlock()
	// First writer wins if two callers raced on the same ticker.
	if cached, ok := r.sentiments[ticker]; ok {
		return cached
	}
	r.sentiments[ticker] = res
	return res
}

// PortfolioScore averages the sentiment scores computed so far, one
// decimal. With nothing scored yet it reads neutral.
func (r *Run) PortfolioScore() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sentiments) == 0 {
		return sentiment.NeutralScore
	}
	var sum float64
	for _, res := range r.sentiments {
		sum += res.Score
	}
	return indicator.Round1(sum / float64(len(r.sentiments)))
}

func (r *Run) asset(ticker string) core.Asset {
	for _, q := range r.Quotes {
		if q.Ticker == ticker {
			return q.Asset
		}
	}
	return core.Asset{Ticker: ticker}
}
