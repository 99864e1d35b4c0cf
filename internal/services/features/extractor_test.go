package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
)

func TestLogReturns(t *testing.T) {
	assert.Nil(t, LogReturns([]float64{1}))

	r := LogReturns([]float64{100, 110, 0, 121})
	require.Len(t, r, 3)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-12)
	assert.Equal(t, 0.0, r[1])
	assert.Equal(t, 0.0, r[2])
}

func TestRealizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, RealizedVolatility([]float64{0.01}, 252))
	assert.Equal(t, 0.0, RealizedVolatility([]float64{0.01, 0.01, 0.01}, 252))

	// sample variance of {0.01, -0.01} is 0.0002
	got := RealizedVolatility([]float64{0.01, -0.01}, 252)
	assert.InDelta(t, math.Sqrt(0.0002*252), got, 1e-12)
}

func TestMarketConditions(t *testing.T) {
	up := []float64{100, 101, 103, 102, 105, 107}
	twice := make([]float64, len(up))
	for i, p := range up {
		twice[i] = 2 * p
	}
	series := []models.Series{
		{Symbol: "AAPL", Values: up},
		{Symbol: "MSFT", Values: twice},
		{Symbol: "X", Values: []float64{5}},
	}
	base := map[string]float64{"AAPL_volatility": 0.5}

	got := MarketConditions(base, series, TradingDaysPerYear)

	assert.Equal(t, 0.5, got["AAPL_volatility"], "caller-provided keys win")
	assert.Greater(t, got["MSFT_volatility"], 0.0)
	assert.InDelta(t, 1.0, got["AAPL_MSFT_correlation"], 1e-9)
	_, ok := got["X_volatility"]
	assert.False(t, ok, "too short for volatility")
	assert.Len(t, base, 1, "base is not modified")
}

func TestMarketConditions_ReversedPairKeyIsRespected(t *testing.T) {
	series := []models.Series{
		{Symbol: "A", Values: []float64{1, 2, 3, 2}},
		{Symbol: "B", Values: []float64{3, 2, 1, 2}},
	}
	got := MarketConditions(map[string]float64{"B_A_correlation": 0.3}, series, TradingDaysPerYear)
	_, ok := got["A_B_correlation"]
	assert.False(t, ok)
	assert.Equal(t, 0.3, got["B_A_correlation"])
}
