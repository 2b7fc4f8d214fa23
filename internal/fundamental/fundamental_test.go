package fundamental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfranco/carteira/internal/core"
)

func fp(v float64) *float64 { return &v }

func TestNormalize_Defaults(t *testing.T) {
	snap := Normalize(Raw{})

	assert.Zero(t, snap.PE)
	assert.Zero(t, snap.PB)
	assert.Zero(t, snap.DividendYield)
	assert.Zero(t, snap.MarketCap)
	assert.Equal(t, "N/D", snap.Recommendation)
}

func TestNormalize_Scaling(t *testing.T) {
	mc := int64(52_000_000_000)
	snap := Normalize(Raw{
		TrailingPE:        fp(4.8123),
		PriceToBook:       fp(0.87),
		DividendYield:     fp(0.0852),
		MarketCap:         &mc,
		ReturnOnEquity:    fp(0.1834),
		DebtToEquity:      fp(35.4),
		TargetMeanPrice:   fp(16.5),
		TargetLowPrice:    fp(12.0),
		TargetHighPrice:   fp(21.0),
		RecommendationKey: "buy",
	})

	assert.Equal(t, 4.81, snap.PE)
	assert.Equal(t, 8.52, snap.DividendYield, "yield is reported as a fraction")
	assert.Equal(t, 18.34, snap.ROE)
	assert.Equal(t, mc, snap.MarketCap)
	assert.Equal(t, "buy", snap.Recommendation)
}

func TestNormalize_DividendYieldCeiling(t *testing.T) {
	// A provider reporting 8.52 as a fraction would read as 852%.
	snap := Normalize(Raw{DividendYield: fp(8.52)})
	assert.Zero(t, snap.DividendYield, "above the ceiling is a data error")

	// Exactly at the ceiling is kept.
	snap = Normalize(Raw{DividendYield: fp(0.30)})
	assert.Equal(t, 30.0, snap.DividendYield)
}

var equity = core.Asset{Symbol: "CXSE3.SA", Ticker: "CXSE3", Name: "Caixa Seguridade"}

func TestCompare_SkipsCrypto(t *testing.T) {
	btc := core.Asset{Symbol: "BTC-USD", Ticker: "BTC"}
	assert.Nil(t, Compare(btc, "", nil))
}

func TestCompare_NoQuarters(t *testing.T) {
	cmp := Compare(equity, "", nil)
	require.NotNil(t, cmp)

	assert.Equal(t, core.NextEarningsTBD, cmp.NextEarningsDate)
	assert.Equal(t, "N/D", cmp.LastReportDate)
	assert.False(t, cmp.RevenueDelta.Known, "deltas must stay unknown without data")
	assert.False(t, cmp.IncomeDelta.Known)
}

func TestCompare_SingleQuarter(t *testing.T) {
	cmp := Compare(equity, "2026-11-05", []Quarter{
		{EndDate: "2026-06-30", Revenue: fp(1000), Income: fp(200)},
	})
	require.NotNil(t, cmp)

	assert.Equal(t, "2026-11-05", cmp.NextEarningsDate)
	assert.Equal(t, "2026-06-30", cmp.LastReportDate)
	assert.False(t, cmp.RevenueDelta.Known, "delta must be unknown with one quarter")
	require.NotNil(t, cmp.RevenueLatest)
	assert.Equal(t, 1000.0, *cmp.RevenueLatest)
}

func TestCompare_Deltas(t *testing.T) {
	cmp := Compare(equity, "", []Quarter{
		{EndDate: "2026-06-30", Revenue: fp(1100), Income: fp(150)},
		{EndDate: "2026-03-31", Revenue: fp(1000), Income: fp(-200)},
	})
	require.NotNil(t, cmp)

	require.True(t, cmp.RevenueDelta.Known)
	assert.Equal(t, 10.0, cmp.RevenueDelta.Pct)

	// Against a loss the denominator is the absolute prior figure.
	require.True(t, cmp.IncomeDelta.Known)
	assert.Equal(t, 175.0, cmp.IncomeDelta.Pct)
}

func TestCompare_MissingFigure(t *testing.T) {
	cmp := Compare(equity, "", []Quarter{
		{EndDate: "2026-06-30", Revenue: fp(1100)},
		{EndDate: "2026-03-31", Revenue: fp(1000), Income: fp(200)},
	})
	require.NotNil(t, cmp)

	assert.True(t, cmp.RevenueDelta.Known)
	assert.False(t, cmp.IncomeDelta.Known, "income delta must be unknown when a figure is missing")
}
