package engine

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FieldTransform maps equal-length price and volume series onto the basis and
// returns a complex state of the same length:
//
//	ψ = Σ_n c_n · φ_(n mod N) · exp(-i·E_n·k/ħ),  n < min(L, N)
//
// where E_n is the variance of the normalized prices over the trailing
// lookback window and c_n = sqrt(max(v̂_n, 0))·exp(i·p̂_n).
func (e *Engine) FieldTransform(prices, volumes []float64) ([]complex128, error) {
	if err := checkPair(prices, volumes); err != nil {
		return nil, fmt.Errorf("field transform: %w", err)
	}
	l := len(prices)
	normPrice := zscore(prices)
	normVolume := zscore(volumes)
	n := e.opts.BasisSize

	psi := make([]complex128, l)
	for i := 0; i < l && i < n; i++ {
		lo := i - e.opts.EnergyLookback
		if lo < 0 {
			lo = 0
		}
		energy := popVariance(normPrice[lo : i+1])
		coeff := complex(math.Sqrt(math.Max(normVolume[i], 0)), 0) * cmplx.Exp(complex(0, normPrice[i]))
		if coeff == 0 {
			continue
		}
		row := e.basisRow(i%n, l)
		for k := 0; k < l; k++ {
			if row[k] == 0 {
				continue
			}
			phase := cmplx.Exp(complex(0, -energy*float64(k)/e.opts.PhaseScale))
			psi[k] += coeff * row[k] * phase
		}
	}
	if !finiteVector(psi) {
		return nil, fmt.Errorf("field transform: %w", ErrNumericalDegeneracy)
	}
	return psi, nil
}

func checkPair(prices, volumes []float64) error {
	switch {
	case len(prices) == 0 || len(volumes) == 0:
		return ErrEmptyInput
	case len(prices) != len(volumes):
		return fmt.Errorf("%d prices, %d volumes: %w", len(prices), len(volumes), ErrLengthMismatch)
	case len(prices) < 2:
		return ErrInsufficientData
	case !finiteSeries(prices, volumes):
		return ErrNonFinite
	}
	return nil
}
