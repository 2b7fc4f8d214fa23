// Package indicator implements the pure technical indicators used by the
// report pipeline. All functions are deterministic, perform no I/O and
// never return an error: degenerate inputs resolve to documented neutral
// defaults so indicators can never abort a run.
package indicator

import "math"

// NeutralRSI is returned when the series is too short or flat.
const NeutralRSI = 50.0

// RSI calculates the Wilder-style Relative Strength Index over a rolling
// mean of gains and losses. Requires at least period+1 samples; shorter
// or flat series return NeutralRSI. An all-gain window returns 100 (the
// loss average is zero, which is overbought, not degenerate).
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return NeutralRSI
	}

	// Average gain/loss over the last `period` deltas.
	var gain, loss float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		if gain == 0 {
			return NeutralRSI
		}
		return 100
	}

	rs := gain / loss
	return round1(100 - 100/(1+rs))
}

// Variation is the percentage change between open and close, rounded to
// two decimals. Returns 0 when open is zero.
func Variation(open, close float64) float64 {
	if open == 0 {
		return 0
	}
	return round2((close - open) / open * 100)
}

// Volatility is the sample standard deviation of day-over-day percentage
// returns, expressed as a percentage. Returns 0 with fewer than two
// return observations.
func Volatility(closes []float64) float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	return round2(std * 100)
}

// Drawdown is the worst peak-to-trough move within the observed window:
// (lowMin - highMax) / highMax * 100. Always <= 0 when low <= high.
// Returns 0 when highMax is zero.
func Drawdown(lowMin, highMax float64) float64 {
	if highMax == 0 {
		return 0
	}
	return round2((lowMin - highMax) / highMax * 100)
}

// PriorPeriodVariation splits a trailing window at its midpoint and
// returns the variation between the window start and the midpoint,
// serving as the previous-period comparator. Requires at least four
// samples, else 0.
func PriorPeriodVariation(closes []float64) float64 {
	if len(closes) < 4 {
		return 0
	}
	mid := len(closes) / 2
	return Variation(closes[0], closes[mid])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2 rounds to two decimals. Exposed for snapshot assembly.
func Round2(v float64) float64 { return round2(v) }

// Round1 rounds to one decimal.
func Round1(v float64) float64 { return round1(v) }
