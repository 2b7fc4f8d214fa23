// Package fundamental normalizes provider fundamentals and compares
// quarterly results.
package fundamental

import (
	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/indicator"
)

// MaxDividendYield is the sanity ceiling in percent. Providers sometimes
// report the yield already multiplied by 100, which lands far above any
// plausible payout; values over the ceiling are treated as data errors.
const MaxDividendYield = 30.0

// Raw holds fundamentals as reported by the provider. Pointers mark
// fields the provider may omit.
type Raw struct {
	TrailingPE        *float64
	PriceToBook       *float64
	DividendYield     *float64 // fraction, e.g. 0.085 for 8.5%
	MarketCap         *int64
	ReturnOnEquity    *float64 // fraction
	DebtToEquity      *float64
	TargetMeanPrice   *float64
	TargetLowPrice    *float64
	TargetHighPrice   *float64
	RecommendationKey string
}

// Normalize converts raw provider fundamentals into a snapshot with
// every missing numeric zeroed and percentages scaled.
func Normalize(raw Raw) core.FundamentalSnapshot {
	snap := core.FundamentalSnapshot{
		PE:             indicator.Round2(f64(raw.TrailingPE)),
		PB:             indicator.Round2(f64(raw.PriceToBook)),
		ROE:            indicator.Round2(f64(raw.ReturnOnEquity) * 100),
		DebtToEquity:   indicator.Round2(f64(raw.DebtToEquity)),
		TargetMean:     indicator.Round2(f64(raw.TargetMeanPrice)),
		TargetLow:      indicator.Round2(f64(raw.TargetLowPrice)),
		TargetHigh:     indicator.Round2(f64(raw.TargetHighPrice)),
		Recommendation: raw.RecommendationKey,
	}
	if raw.MarketCap != nil {
		snap.MarketCap = *raw.MarketCap
	}
	if snap.Recommendation == "" {
		snap.Recommendation = "N/D"
	}
	dy := f64(raw.DividendYield) * 100
	if dy > MaxDividendYield {
		dy = 0
	}
	snap.DividendYield = indicator.Round2(dy)
	return snap
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Quarter is one reported fiscal quarter, latest first in any slice.
type Quarter struct {
	EndDate string
	Revenue *float64
	Income  *float64
}

// Compare builds the quarter-over-quarter view for one asset. Deltas stay
// unknown unless both quarters report a nonzero figure. Crypto assets have
// no earnings calendar and yield nil.
func Compare(asset core.Asset, nextEarningsDate string, quarters []Quarter) *core.EarningsComparison {
	if asset.IsCrypto() {
		return nil
	}
	cmp := &core.EarningsComparison{
		Asset:            asset,
		NextEarningsDate: nextEarningsDate,
		LastReportDate:   "N/D",
	}
	if cmp.NextEarningsDate == "" {
		cmp.NextEarningsDate = core.NextEarningsTBD
	}
	if len(quarters) == 0 {
		return cmp
	}
	if quarters[0].EndDate != "" {
		cmp.LastReportDate = quarters[0].EndDate
	}
	if len(quarters) < 2 {
		cmp.RevenueLatest = quarters[0].Revenue
		cmp.IncomeLatest = quarters[0].Income
		return cmp
	}
	cmp.RevenueLatest, cmp.RevenuePrior = quarters[0].Revenue, quarters[1].Revenue
	cmp.IncomeLatest, cmp.IncomePrior = quarters[0].Income, quarters[1].Income
	cmp.RevenueDelta = delta(cmp.RevenueLatest, cmp.RevenuePrior)
	cmp.IncomeDelta = delta(cmp.IncomeLatest, cmp.IncomePrior)
	return cmp
}

// delta computes the percentage change against the absolute value of the
// prior quarter, so a recovery from a loss still reads as an improvement.
func delta(latest, prior *float64) core.Delta {
	if latest == nil || prior == nil || *latest == 0 || *prior == 0 {
		return core.Delta{}
	}
	pct := (*latest - *prior) / abs(*prior) * 100
	return core.Delta{Pct: indicator.Round1(pct), Known: true}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
