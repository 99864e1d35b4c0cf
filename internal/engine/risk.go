package engine

import (
	"fmt"
	"math"

	"QOFA/internal/domain/models"
)

const (
	defaultVolatility    = 0.2
	correlationRiskScale = 0.1
	volatilityKeySuffix  = "_volatility"
	correlationKeySuffix = "_correlation"
)

// VolatilityKey is the market-conditions key for a symbol's volatility.
func VolatilityKey(symbol string) string { return symbol + volatilityKeySuffix }

// CorrelationKey is the market-conditions key for a pair correlation.
func CorrelationKey(a, b string) string { return a + "_" + b + correlationKeySuffix }

// AssessRisk scores a portfolio as Re(vᴴ·M·v) over its unit-normalized weight
// vector v, where M has volatility² on the diagonal and 0.1·correlation off it.
// coupling is an optional entanglement matrix whose real trace is reported as
// entanglement risk; nil reports zero.
func (e *Engine) AssessRisk(positions []models.Position, conditions map[string]float64, coupling *CMatrix) (models.RiskMetrics, error) {
	v, err := portfolioVector(positions)
	if err != nil {
		return models.RiskMetrics{}, fmt.Errorf("assess risk: %w", err)
	}
	n := len(positions)
	m, err := NewCMatrix(n)
	if err != nil {
		return models.RiskMetrics{}, fmt.Errorf("assess risk: %w", err)
	}
	for i, pi := range positions {
		vol := lookup(conditions, defaultVolatility, VolatilityKey(pi.Symbol))
		m.Set(i, i, complex(vol*vol, 0))
		for j := i + 1; j < n; j++ {
			pj := positions[j]
			corr := lookup(conditions, 0, CorrelationKey(pi.Symbol, pj.Symbol), CorrelationKey(pj.Symbol, pi.Symbol))
			m.Set(i, j, complex(corr*correlationRiskScale, 0))
			m.Set(j, i, complex(corr*correlationRiskScale, 0))
		}
	}
	if !m.finite() {
		return models.RiskMetrics{}, fmt.Errorf("assess risk: market conditions: %w", ErrNonFinite)
	}

	var coherence float64
	for _, z := range v {
		p := real(z)*real(z) + imag(z)*imag(z)
		coherence += p * math.Log(p+entropyFloor)
	}
	metrics := models.RiskMetrics{
		QuantumRisk:          real(m.QuadraticForm(v)),
		DiversificationRatio: math.Abs(coherence),
		DecoherenceTime:      e.opts.DecoherenceTime,
	}
	if coupling != nil {
		metrics.EntanglementRisk = real(coupling.Trace())
	}
	return metrics, nil
}

func portfolioVector(positions []models.Position) ([]complex128, error) {
	if len(positions) == 0 {
		return nil, ErrEmptyInput
	}
	seen := make(map[string]struct{}, len(positions))
	var norm float64
	for _, p := range positions {
		if _, dup := seen[p.Symbol]; dup {
			return nil, fmt.Errorf("%q: %w", p.Symbol, ErrDuplicateSymbol)
		}
		seen[p.Symbol] = struct{}{}
		if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return nil, fmt.Errorf("%q weight: %w", p.Symbol, ErrNonFinite)
		}
		norm = math.Hypot(norm, p.Weight)
	}
	if norm == 0 {
		return nil, ErrDegeneratePortfolio
	}
	v := make([]complex128, len(positions))
	for i, p := range positions {
		v[i] = complex(p.Weight/norm, 0)
	}
	return v, nil
}

// lookup returns the first present key, else def.
func lookup(conditions map[string]float64, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := conditions[k]; ok {
			return v
		}
	}
	return def
}
