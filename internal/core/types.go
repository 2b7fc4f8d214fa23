package core

import (
	"strings"
	"time"
)

// Sentiment classifies the tone of a news headline. Values are the
// Portuguese labels used on the wire and in rendered output.
type Sentiment string

const (
	SentimentOptimistic  Sentiment = "Otimista"
	SentimentPessimistic Sentiment = "Pessimista"
	SentimentNeutral     Sentiment = "Neutro"
)

// Horizon classifies the expected price-impact timeframe of a headline.
type Horizon string

const (
	HorizonShort Horizon = "Curto"
	HorizonLong  Horizon = "Longo"
)

// Asset is one watch-list entry. Membership is fixed by configuration
// for the lifetime of a run.
type Asset struct {
	Symbol string // provider symbol, e.g. "CXSE3.SA", "BTC-USD"
	Ticker string // display form, e.g. "CXSE3", "BTC"
	Name   string
	Sector string
}

// IsCrypto reports whether the asset is a crypto reference rather than
// an exchange-listed equity.
func (a Asset) IsCrypto() bool {
	return strings.HasSuffix(a.Symbol, "-USD") || strings.HasSuffix(a.Symbol, "-USDT")
}

// CurrencyPrefix returns the price prefix used in rendered output.
func (a Asset) CurrencyPrefix() string {
	if a.IsCrypto() {
		return "US$"
	}
	return "R$"
}

// DisplayTicker derives the display form from a provider symbol.
func DisplayTicker(symbol string) string {
	t := strings.TrimSuffix(symbol, ".SA")
	t = strings.TrimSuffix(t, "-USD")
	return strings.TrimSuffix(t, "-USDT")
}

// PricePoint is one (date, close) observation in a price history.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// QuoteSnapshot holds the per-asset market view for the current period.
// Built once by the market data adapter and read-only afterward.
type QuoteSnapshot struct {
	Asset

	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume int64 // mean daily volume over the window

	Variation      float64 // (close-open)/open*100, 2 decimals
	PriorVariation float64 // first half of the 10-sample window
	Volatility     float64 // std dev of daily returns, percent
	Drawdown       float64 // worst peak-to-trough move, always <= 0
	RSI            float64 // [0,100], 50 when degenerate

	History []PricePoint
}

// FundamentalSnapshot holds normalized valuation multiples for one asset.
// Missing provider fields are zeroed; dividend yield above the 30% sanity
// ceiling is treated as a data error and zeroed.
type FundamentalSnapshot struct {
	PE             float64
	PB             float64
	DividendYield  float64 // percent
	MarketCap      int64
	ROE            float64 // percent
	DebtToEquity   float64
	TargetMean     float64
	TargetLow      float64
	TargetHigh     float64
	Recommendation string // provider label, "N/D" when absent
}

// Delta is an explicit present-or-absent percentage change. Known is
// false whenever the underlying figures do not allow a comparison.
type Delta struct {
	Pct   float64
	Known bool
}

// NextEarningsTBD is rendered when the provider has no calendar entry.
const NextEarningsTBD = "A confirmar"

// EarningsComparison compares the two most recent reported quarters.
// Deltas are never computed from a single data point.
type EarningsComparison struct {
	Asset

	NextEarningsDate string // date or NextEarningsTBD
	LastReportDate   string // date of latest reported quarter, "N/D" when unknown

	RevenueLatest *float64
	RevenuePrior  *float64
	IncomeLatest  *float64
	IncomePrior   *float64

	RevenueDelta Delta
	IncomeDelta  Delta
}

// Dividend is one historical dividend payment.
type Dividend struct {
	Ticker string
	Name   string
	Date   time.Time
	Value  float64
}

// NewsItem is one headline for an asset. Sentiment and Horizon are
// filled in by the sentiment scorer, exactly once per run.
type NewsItem struct {
	Title     string
	Link      string
	Source    string
	Published string

	Sentiment Sentiment
	Horizon   Horizon
}

// SentimentResult aggregates scored headlines for one asset.
type SentimentResult struct {
	Score   float64 // [0,10], one decimal
	Overall Sentiment
	Impact  string // short impact summary, may be empty
	News    []NewsItem
}

// CorrelationPoint is a macro reference (index, currency pair, crypto)
// tracked alongside the watch-list.
type CorrelationPoint struct {
	Name      string
	Symbol    string
	Variation float64
	Level     float64
}

// Report holds the two AI-generated narrative blocks. Composed once per
// run and immutable thereafter.
type Report struct {
	Analysis        string
	Recommendations string
	GeneratedAt     time.Time
}

// Delivery bundles everything a notifier channel needs to push a report.
type Delivery struct {
	Quotes   []QuoteSnapshot
	Report   *Report
	PDF      []byte
	Filename string
}
