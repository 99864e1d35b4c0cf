package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EvolutionResult is the damped trajectory of a state under a coupling matrix.
type EvolutionResult struct {
	// Eigenvalues of the Hermitian part read from the lower triangle, ascending.
	Eigenvalues []float64
	// Trajectory[t] is the state before step t; len(Trajectory) == Steps.
	Trajectory [][]complex128
	Steps      int
}

// Evolve advances initial through steps applications of U = exp(-i·H·dt/ħ),
// dt = 1/steps, damping the state by exp(-t·dt/τ) after step t. steps == 0
// selects the configured default.
func (e *Engine) Evolve(h *CMatrix, initial []complex128, steps int) (*EvolutionResult, error) {
	if h == nil {
		return nil, fmt.Errorf("evolve: %w", ErrEmptyInput)
	}
	if steps == 0 {
		steps = e.opts.TimeSteps
	}
	if steps < 0 {
		return nil, fmt.Errorf("evolve: steps %d: %w", steps, ErrInvalidTimeSteps)
	}
	n := h.Dim()
	if len(initial) != n {
		return nil, fmt.Errorf("evolve: state length %d, matrix dim %d: %w", len(initial), n, ErrLengthMismatch)
	}
	if !h.finite() || !finiteVector(initial) {
		return nil, fmt.Errorf("evolve: %w", ErrNonFinite)
	}

	eig, err := hermitianEigenvalues(h)
	if err != nil {
		return nil, fmt.Errorf("evolve: %w", err)
	}

	dt := 1 / float64(steps)
	var expm mat.Dense
	expm.Exp(h.realEmbedding(complex(0, -dt/e.opts.PhaseScale)))
	u := fromEmbedding(&expm, n)
	if !u.finite() {
		return nil, fmt.Errorf("evolve: propagator: %w", ErrNumericalDegeneracy)
	}

	traj := make([][]complex128, steps)
	current := append([]complex128(nil), initial...)
	for t := 0; t < steps; t++ {
		traj[t] = append([]complex128(nil), current...)
		current = u.MulVec(current)
		damp := complex(math.Exp(-float64(t)*dt/e.opts.DecoherenceTime), 0)
		for i := range current {
			current[i] *= damp
		}
	}
	for _, row := range traj {
		if !finiteVector(row) {
			return nil, fmt.Errorf("evolve: trajectory: %w", ErrNumericalDegeneracy)
		}
	}
	return &EvolutionResult{Eigenvalues: eig, Trajectory: traj, Steps: steps}, nil
}

// hermitianEigenvalues returns the eigenvalues of the Hermitian matrix whose
// lower triangle is that of h. The real embedding carries each one twice.
func hermitianEigenvalues(h *CMatrix) ([]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(h.hermitianEmbedding(), false); !ok {
		return nil, ErrNumericalDegeneracy
	}
	doubled := es.Values(nil)
	out := make([]float64, h.Dim())
	for i := range out {
		out[i] = doubled[2*i]
	}
	return out, nil
}
