package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"QOFA/internal/domain/models"
	"QOFA/internal/engine"
)

// TradingDaysPerYear annualizes daily-bar volatility.
const TradingDaysPerYear = 252

// LogReturns computes r_t = ln(p_t / p_{t-1}); non-positive prices yield 0.
// It returns nil when fewer than two prices are given.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the annualized sample standard deviation of returns.
func RealizedVolatility(returns []float64, barsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	v := stat.Variance(returns, nil)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Sqrt(v * barsPerYear)
}

// MarketConditions fills volatility and pairwise correlation keys derived
// from price series. Keys already present in base are kept, so caller-given
// conditions override derived ones. base is not modified.
func MarketConditions(base map[string]float64, series []models.Series, barsPerYear float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(series)*len(series))
	for k, v := range base {
		out[k] = v
	}
	setIfMissing := func(k string, v float64) {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}

	returns := make([][]float64, len(series))
	for i, s := range series {
		returns[i] = LogReturns(s.Values)
		if len(returns[i]) >= 2 {
			setIfMissing(engine.VolatilityKey(s.Symbol), RealizedVolatility(returns[i], barsPerYear))
		}
	}
	for i := range series {
		for j := i + 1; j < len(series); j++ {
			a, b := returns[i], returns[j]
			n := min(len(a), len(b))
			if n < 2 {
				continue
			}
			c := stat.Correlation(a[len(a)-n:], b[len(b)-n:], nil)
			if math.IsNaN(c) {
				c = 0
			}
			ka := engine.CorrelationKey(series[i].Symbol, series[j].Symbol)
			kb := engine.CorrelationKey(series[j].Symbol, series[i].Symbol)
			if _, ok := out[kb]; ok {
				continue
			}
			setIfMissing(ka, c)
		}
	}
	return out
}
