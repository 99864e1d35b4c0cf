package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"QOFA/internal/domain/models"
)

const volumeCouplingScale = 1e-6

// volumePhase is exp(iπ/4).
var volumePhase = cmplx.Rect(1, math.Pi/4)

// Hamiltonian builds the banded coupling matrix of an options chain in caller
// row order. Diagonal: iv² + 1e-6·vol. Nearest neighbours:
// -1/(2|Δstrike|) + 1e-6·sqrt(vol_i·vol_j)·exp(iπ/4), written symmetrically.
func (e *Engine) Hamiltonian(chain []models.OptionContract) (*CMatrix, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("hamiltonian: %w", ErrEmptyInput)
	}
	for i, c := range chain {
		if !finiteSeries([]float64{c.Strike, c.Volume, c.ImpliedVolatility}) {
			return nil, fmt.Errorf("hamiltonian: row %d: %w", i, ErrNonFinite)
		}
		if c.Volume < 0 {
			return nil, fmt.Errorf("hamiltonian: row %d volume %v: %w", i, c.Volume, ErrInvalidInput)
		}
	}
	n := len(chain)
	h, err := NewCMatrix(n)
	if err != nil {
		return nil, fmt.Errorf("hamiltonian: %w", err)
	}
	for i, c := range chain {
		h.Set(i, i, complex(c.ImpliedVolatility*c.ImpliedVolatility+c.Volume*volumeCouplingScale, 0))
		if i+1 == n {
			break
		}
		next := chain[i+1]
		gap := math.Abs(c.Strike - next.Strike)
		if gap == 0 {
			return nil, fmt.Errorf("hamiltonian: rows %d,%d strike %v: %w", i, i+1, c.Strike, ErrDegenerateStrikes)
		}
		kinetic := complex(-1/(2*gap), 0)
		flow := complex(math.Sqrt(c.Volume*next.Volume)*volumeCouplingScale, 0) * volumePhase
		h.Set(i, i+1, kinetic+flow)
		h.Set(i+1, i, kinetic+flow)
	}
	if !h.finite() {
		return nil, fmt.Errorf("hamiltonian: %w", ErrNumericalDegeneracy)
	}
	return h, nil
}
