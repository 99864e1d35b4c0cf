package usecase

import (
	"hash/fnv"
	"math"
	"math/rand"

	"QOFA/internal/domain/models"
)

// DefaultSampleSymbols are the instruments served by the demo endpoint.
var DefaultSampleSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "SPY"}

const defaultSamplePoints = 100

// SampleGenerator produces reproducible random-walk market data. The same
// symbol and length always yield the same series.
type SampleGenerator struct{}

func NewSampleGenerator() *SampleGenerator { return &SampleGenerator{} }

// Generate returns one series per symbol with n points (100 when n <= 0).
// Prices walk from a base in [50,200) with N(0,2) steps; volumes are
// 1000 + 500·|Δprice| + Exp(mean 200).
func (g *SampleGenerator) Generate(symbols []string, n int) []models.SampleSeries {
	if n <= 0 {
		n = defaultSamplePoints
	}
	out := make([]models.SampleSeries, len(symbols))
	for i, sym := range symbols {
		rng := rand.New(rand.NewSource(seedFor(sym)))
		prices := make([]float64, n)
		volumes := make([]float64, n)
		p := 50 + 150*rng.Float64()
		for k := range prices {
			p += 2 * rng.NormFloat64()
			prices[k] = p
		}
		for k := range volumes {
			var dp float64
			if k > 0 {
				dp = math.Abs(prices[k] - prices[k-1])
			}
			volumes[k] = 1000 + 500*dp + 200*rng.ExpFloat64()
		}
		out[i] = models.SampleSeries{Symbol: sym, Prices: prices, Volumes: volumes}
	}
	return out
}

// Series returns only the price series for symbols.
func (g *SampleGenerator) Series(symbols []string, n int) []models.Series {
	samples := g.Generate(symbols, n)
	out := make([]models.Series, len(samples))
	for i, s := range samples {
		out[i] = models.Series{Symbol: s.Symbol, Values: s.Prices}
	}
	return out
}

func seedFor(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64() % 1000)
}
