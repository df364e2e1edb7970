// Package riskmetrics derives annualized risk statistics from a series of
// daily percentage returns. Missing observations are encoded as NaN, the
// same convention the rest of the codebase uses for gappy float series.
package riskmetrics

import "math"

// TradingDaysPerYear is the annualization factor for daily return series.
const TradingDaysPerYear = 252

// Metrics holds the computed statistics. A nil field means the input did
// not carry enough information to estimate that statistic.
type Metrics struct {
	// AnnualizedVolatility is the sample standard deviation of daily
	// returns scaled by sqrt(252).
	AnnualizedVolatility *float64
	// AnnualizedSharpeRatio assumes a zero risk-free rate. It is nil for a
	// flat series: zero volatility leaves risk-adjusted return undefined.
	AnnualizedSharpeRatio *float64
	// MaxDrawdown is the deepest decline from a prior peak of the wealth
	// index, always <= 0 when defined.
	MaxDrawdown *float64
}

// Compute calculates annualized volatility, Sharpe ratio and max drawdown
// from daily percentage returns in chronological order. NaN entries are
// dropped before computation. Fewer than 2 valid observations yield a
// Metrics value with every field nil.
func Compute(returnsPct []float64) Metrics {
	decimals := make([]float64, 0, len(returnsPct))
	for _, r := range returnsPct {
		if math.IsNaN(r) {
			continue
		}
		decimals = append(decimals, r/100)
	}
	if len(decimals) < 2 {
		return Metrics{}
	}

	dailyMean := mean(decimals)
	dailyVol := sampleStdDev(decimals, dailyMean)

	annVol := dailyVol * math.Sqrt(TradingDaysPerYear)
	metrics := Metrics{AnnualizedVolatility: &annVol}

	if dailyVol > 0 {
		sharpe := dailyMean / dailyVol * math.Sqrt(TradingDaysPerYear)
		metrics.AnnualizedSharpeRatio = &sharpe
	}

	maxDD := maxDrawdown(decimals)
	metrics.MaxDrawdown = &maxDD
	return metrics
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator; callers guarantee len >= 2.
func sampleStdDev(values []float64, mean float64) float64 {
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// maxDrawdown compounds the returns into a wealth index starting at 1 and
// tracks the deepest drop below the running peak. The first wealth point is
// its own peak, so a series that only ever falls draws down relative to its
// first observation.
func maxDrawdown(decimals []float64) float64 {
	wealth := 1.0
	peak := math.Inf(-1)
	minDD := 0.0
	for _, r := range decimals {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		dd := wealth/peak - 1
		if dd < minDD {
			minDD = dd
		}
	}
	return minDD
}
