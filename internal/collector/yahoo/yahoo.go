// Package yahoo implements the market data source over the public
// Yahoo Finance chart, quoteSummary and search APIs.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/fundamental"
	"github.com/gfranco/carteira/internal/indicator"
)

const (
	defaultChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"
	defaultSearchURL  = "https://query1.finance.yahoo.com/v1/finance/search"

	// Yahoo rejects the default Go user agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

	rsiPeriod    = 14
	newsLimit    = 5
	dividendTail = 3
)

// validSymbol matches listed equities (CXSE3.SA), crypto pairs (BTC-USD),
// indices (^BVSP) and currency crosses (USDBRL=X).
var validSymbol = regexp.MustCompile(`^[\^]?[A-Za-z0-9=\-]{1,12}(\.[A-Za-z]{1,4})?$`)

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Client fetches market data from Yahoo Finance.
type Client struct {
	client *http.Client
	log    *zap.Logger

	chartURL   string
	summaryURL string
	searchURL  string
}

// New creates a Yahoo Finance client.
func New(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
		chartURL:   defaultChartURL,
		summaryURL: defaultSummaryURL,
		searchURL:  defaultSearchURL,
	}
}

func (c *Client) Name() string {
	return "yahoo"
}

// FetchSnapshot builds the per-asset market view: the five-day window for
// price, variation, volatility and drawdown, one month of closes for RSI,
// and ten days for the prior-period variation.
func (c *Client) FetchSnapshot(ctx context.Context, asset core.Asset) (*core.QuoteSnapshot, error) {
	if err := validateSymbol(asset.Symbol); err != nil {
		return nil, err
	}

	week, err := c.fetchChart(ctx, asset.Symbol, "5d", false)
	if err != nil {
		return nil, err
	}
	dates, closes := week.closeSeries()
	if len(closes) < 2 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("%s: %d closes in window", asset.Symbol, len(closes)))
	}

	open := indicator.Round2(closes[0])
	last := indicator.Round2(closes[len(closes)-1])
	low, high := week.lowHigh()

	snap := &core.QuoteSnapshot{
		Asset:      asset,
		Open:       open,
		Close:      last,
		High:       indicator.Round2(high),
		Low:        indicator.Round2(low),
		Volume:     week.meanVolume(),
		Variation:  indicator.Variation(open, last),
		Volatility: indicator.Volatility(closes),
		Drawdown:   indicator.Drawdown(low, high),
		RSI:        indicator.NeutralRSI,
	}

	for i := range closes {
		snap.History = append(snap.History, core.PricePoint{
			Date:  dates[i],
			Price: indicator.Round2(closes[i]),
		})
	}

	// Secondary windows are best effort.
	if month, err := c.fetchChart(ctx, asset.Symbol, "1mo", false); err == nil {
		if _, monthCloses := month.closeSeries(); len(monthCloses) > 0 {
			snap.RSI = indicator.RSI(monthCloses, rsiPeriod)
		}
	} else {
		c.log.Debug("monthly window unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
	}
	if tenDay, err := c.fetchChart(ctx, asset.Symbol, "10d", false); err == nil {
		_, tenCloses := tenDay.closeSeries()
		snap.PriorVariation = indicator.PriorPeriodVariation(tenCloses)
	} else {
		c.log.Debug("ten-day window unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
	}

	return snap, nil
}

// FetchFundamentals returns normalized valuation multiples for the asset.
func (c *Client) FetchFundamentals(ctx context.Context, asset core.Asset) (*core.FundamentalSnapshot, error) {
	if err := validateSymbol(asset.Symbol); err != nil {
		return nil, err
	}
	result, err := c.fetchSummary(ctx, asset.Symbol, "summaryDetail,financialData,defaultKeyStatistics")
	if err != nil {
		return nil, err
	}

	raw := fundamental.Raw{
		TrailingPE:        result.SummaryDetail.TrailingPE.ptr(),
		DividendYield:     result.SummaryDetail.DividendYield.ptr(),
		PriceToBook:       result.DefaultKeyStatistics.PriceToBook.ptr(),
		ReturnOnEquity:    result.FinancialData.ReturnOnEquity.ptr(),
		DebtToEquity:      result.FinancialData.DebtToEquity.ptr(),
		TargetMeanPrice:   result.FinancialData.TargetMeanPrice.ptr(),
		TargetLowPrice:    result.FinancialData.TargetLowPrice.ptr(),
		TargetHighPrice:   result.FinancialData.TargetHighPrice.ptr(),
		RecommendationKey: result.FinancialData.RecommendationKey,
	}
	if mc := result.SummaryDetail.MarketCap.ptr(); mc != nil {
		v := int64(*mc)
		raw.MarketCap = &v
	}

	snap := fundamental.Normalize(raw)
	return &snap, nil
}

// FetchDividends returns the last few dividend payments, newest first.
func (c *Client) FetchDividends(ctx context.Context, asset core.Asset) ([]core.Dividend, error) {
	if err := validateSymbol(asset.Symbol); err != nil {
		return nil, err
	}
	chart, err := c.fetchChart(ctx, asset.Symbol, "1y", true)
	if err != nil {
		return nil, err
	}

	divs := make([]core.Dividend, 0, len(chart.Events.Dividends))
	for _, d := range chart.Events.Dividends {
		divs = append(divs, core.Dividend{
			Ticker: asset.Ticker,
			Name:   asset.Name,
			Date:   time.Unix(d.Date, 0).UTC(),
			Value:  d.Amount,
		})
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i].Date.After(divs[j].Date) })
	if len(divs) > dividendTail {
		divs = divs[:dividendTail]
	}
	return divs, nil
}

// FetchNews returns recent headlines for the asset via the search API.
func (c *Client) FetchNews(ctx context.Context, asset core.Asset) ([]core.NewsItem, error) {
	if err := validateSymbol(asset.Symbol); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s?q=%s&newsCount=%d", c.searchURL, url.QueryEscape(asset.Symbol), newsLimit)

	var result searchResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	items := make([]core.NewsItem, 0, newsLimit)
	for _, n := range result.News {
		if n.Title == "" {
			continue
		}
		item := core.NewsItem{
			Title:  n.Title,
			Link:   n.Link,
			Source: n.Publisher,
		}
		if item.Link == "" {
			item.Link = "#"
		}
		if item.Source == "" {
			item.Source = "Yahoo Finance"
		}
		if n.ProviderPublishTime > 0 {
			item.Published = time.Unix(n.ProviderPublishTime, 0).UTC().Format("2006-01-02T15:04")
		}
		items = append(items, item)
		if len(items) == newsLimit {
			break
		}
	}
	return items, nil
}

// FetchEarnings returns the quarter-over-quarter earnings view. Crypto
// assets have no earnings calendar and yield nil.
func (c *Client) FetchEarnings(ctx context.Context, asset core.Asset) (*core.EarningsComparison, error) {
	if asset.IsCrypto() {
		return nil, nil
	}
	if err := validateSymbol(asset.Symbol); err != nil {
		return nil, err
	}
	result, err := c.fetchSummary(ctx, asset.Symbol, "calendarEvents,incomeStatementHistoryQuarterly")
	if err != nil {
		return nil, err
	}

	quarters := make([]fundamental.Quarter, 0, len(result.IncomeStatementHistoryQuarterly.Statements))
	for _, s := range result.IncomeStatementHistoryQuarterly.Statements {
		quarters = append(quarters, fundamental.Quarter{
			EndDate: s.EndDate.dateString(),
			Revenue: s.TotalRevenue.ptr(),
			Income:  s.NetIncome.ptr(),
		})
	}

	return fundamental.Compare(asset, result.CalendarEvents.nextEarningsDate(), quarters), nil
}

// FetchCorrelation fetches the five-day variation and current level of a
// macro reference.
func (c *Client) FetchCorrelation(ctx context.Context, name, symbol string) (*core.CorrelationPoint, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	chart, err := c.fetchChart(ctx, symbol, "5d", false)
	if err != nil {
		return nil, err
	}
	_, closes := chart.closeSeries()
	if len(closes) < 2 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("%s: %d closes in window", symbol, len(closes)))
	}
	return &core.CorrelationPoint{
		Name:      name,
		Symbol:    symbol,
		Variation: indicator.Variation(closes[0], closes[len(closes)-1]),
		Level:     indicator.Round2(closes[len(closes)-1]),
	}, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol, rng string, events bool) (*chartResult, error) {
	u := fmt.Sprintf("%s/%s?interval=1d&range=%s", c.chartURL, url.PathEscape(symbol), rng)
	if events {
		u += "&events=div"
	}

	var result chartResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("%s: %s", symbol, result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no chart data for %s", symbol))
	}
	return &result.Chart.Result[0], nil
}

func (c *Client) fetchSummary(ctx context.Context, symbol, modules string) (*summaryResult, error) {
	u := fmt.Sprintf("%s/%s?modules=%s", c.summaryURL, url.PathEscape(symbol), url.QueryEscape(modules))

	var result summaryResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	if result.QuoteSummary.Error != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("%s: %s", symbol, result.QuoteSummary.Error.Description))
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no summary data for %s", symbol))
	}
	return &result.QuoteSummary.Result[0], nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrCollectorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Chart API response types.

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta   `json:"meta"`
	Timestamp  []int64     `json:"timestamp"`
	Indicators indicators  `json:"indicators"`
	Events     chartEvents `json:"events"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type chartEvents struct {
	Dividends map[string]dividendEvent `json:"dividends"`
}

type dividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// closeSeries returns the dated closing prices with gaps skipped.
func (r *chartResult) closeSeries() ([]time.Time, []float64) {
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := r.Indicators.Quote[0]
	dates := make([]time.Time, 0, len(r.Timestamp))
	closes := make([]float64, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		dates = append(dates, time.Unix(ts, 0).UTC())
		closes = append(closes, *q.Close[i])
	}
	return dates, closes
}

func (r *chartResult) lowHigh() (low, high float64) {
	if len(r.Indicators.Quote) == 0 {
		return 0, 0
	}
	q := r.Indicators.Quote[0]
	for i := range q.Low {
		if q.Low[i] == nil || q.High[i] == nil {
			continue
		}
		if low == 0 || *q.Low[i] < low {
			low = *q.Low[i]
		}
		if *q.High[i] > high {
			high = *q.High[i]
		}
	}
	return low, high
}

func (r *chartResult) meanVolume() int64 {
	if len(r.Indicators.Quote) == 0 {
		return 0
	}
	var sum, n int64
	for _, v := range r.Indicators.Quote[0].Volume {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// quoteSummary API response types. Numeric fields arrive wrapped as
// {"raw": ..., "fmt": "..."} objects.

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	SummaryDetail struct {
		TrailingPE    rawValue `json:"trailingPE"`
		DividendYield rawValue `json:"dividendYield"`
		MarketCap     rawValue `json:"marketCap"`
	} `json:"summaryDetail"`
	FinancialData struct {
		ReturnOnEquity    rawValue `json:"returnOnEquity"`
		DebtToEquity      rawValue `json:"debtToEquity"`
		TargetMeanPrice   rawValue `json:"targetMeanPrice"`
		TargetLowPrice    rawValue `json:"targetLowPrice"`
		TargetHighPrice   rawValue `json:"targetHighPrice"`
		RecommendationKey string   `json:"recommendationKey"`
	} `json:"financialData"`
	DefaultKeyStatistics struct {
		PriceToBook rawValue `json:"priceToBook"`
	} `json:"defaultKeyStatistics"`
	CalendarEvents                  calendarEvents `json:"calendarEvents"`
	IncomeStatementHistoryQuarterly struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistoryQuarterly"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v rawValue) ptr() *float64 {
	return v.Raw
}

// dateString renders the raw epoch value as an ISO date.
func (v rawValue) dateString() string {
	if v.Fmt != "" {
		return v.Fmt
	}
	if v.Raw == nil {
		return ""
	}
	return time.Unix(int64(*v.Raw), 0).UTC().Format("2006-01-02")
}

type incomeStatement struct {
	EndDate      rawValue `json:"endDate"`
	TotalRevenue rawValue `json:"totalRevenue"`
	NetIncome    rawValue `json:"netIncome"`
}

// calendarEvents tolerates both shapes Yahoo serves for the earnings
// date: an array of wrapped values or a single wrapped value.
type calendarEvents struct {
	Earnings struct {
		EarningsDate json.RawMessage `json:"earningsDate"`
	} `json:"earnings"`
}

func (c calendarEvents) nextEarningsDate() string {
	raw := c.Earnings.EarningsDate
	if len(raw) == 0 {
		return ""
	}
	var list []rawValue
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return list[0].dateString()
	}
	var single rawValue
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.dateString()
	}
	return ""
}

// search API response types.

type searchResponse struct {
	News []searchNews `json:"news"`
}

type searchNews struct {
	Title               string `json:"title"`
	Link                string `json:"link"`
	Publisher           string `json:"publisher"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}
