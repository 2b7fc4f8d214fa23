package collector

import (
	"context"

	"github.com/gfranco/carteira/internal/core"
)

// MarketData is the read-only data source backing a report run. A failing
// fetch for one asset never aborts the run; callers log and move on.
type MarketData interface {
	Name() string

	// FetchSnapshot builds the full per-asset market view for the
	// current window. Requires at least two closing prices.
	FetchSnapshot(ctx context.Context, asset core.Asset) (*core.QuoteSnapshot, error)

	// FetchFundamentals returns normalized valuation multiples.
	FetchFundamentals(ctx context.Context, asset core.Asset) (*core.FundamentalSnapshot, error)

	// FetchDividends returns the most recent dividend payments,
	// newest first.
	FetchDividends(ctx context.Context, asset core.Asset) ([]core.Dividend, error)

	// FetchNews returns up to five recent headlines for the asset.
	FetchNews(ctx context.Context, asset core.Asset) ([]core.NewsItem, error)

	// FetchEarnings returns the quarter-over-quarter earnings view,
	// or nil for assets with no earnings calendar.
	FetchEarnings(ctx context.Context, asset core.Asset) (*core.EarningsComparison, error)

	// FetchCorrelation fetches the current level and period variation
	// of a macro reference such as an index or currency pair.
	FetchCorrelation(ctx context.Context, name, symbol string) (*core.CorrelationPoint, error)
}
