package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []complex128) float64 {
	var s float64
	for _, z := range v {
		s += real(z)*real(z) + imag(z)*imag(z)
	}
	return math.Sqrt(s)
}

func TestEvolve_DiagonalClosedForm(t *testing.T) {
	e := newTestEngine(t)
	h, err := CMatrixFromRows([][]complex128{{1, 0}, {0, 2}})
	require.NoError(t, err)

	res, err := e.Evolve(h, []complex128{1, 1}, 4)
	require.NoError(t, err)
	require.Len(t, res.Trajectory, 4)
	assert.Equal(t, 4, res.Steps)
	assert.InDeltaSlice(t, []float64{1, 2}, res.Eigenvalues, 1e-12)

	dt := 0.25
	damp := 1.0
	for step, state := range res.Trajectory {
		for i, lambda := range []float64{1, 2} {
			want := complex(damp, 0) * cmplx.Exp(complex(0, -lambda*dt*float64(step)))
			assert.InDelta(t, real(want), real(state[i]), 1e-9, "step %d component %d", step, i)
			assert.InDelta(t, imag(want), imag(state[i]), 1e-9, "step %d component %d", step, i)
		}
		damp *= math.Exp(-float64(step) * dt / 3600)
	}
}

func TestEvolve_HermitianEigenvaluesFromLowerTriangle(t *testing.T) {
	e := newTestEngine(t)
	// Lower triangle defines [[1, -i], [i, 1]]; the upper entry is ignored.
	h, err := CMatrixFromRows([][]complex128{{1, 42}, {1i, 1}})
	require.NoError(t, err)

	res, err := e.Evolve(h, []complex128{1, 0}, 10)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 2}, res.Eigenvalues, 1e-12)
}

func TestEvolve_HermitianNormNonIncreasing(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.DecoherenceTime = 0.5 })
	h, err := CMatrixFromRows([][]complex128{
		{0.3, 0.1 - 0.2i, 0},
		{0.1 + 0.2i, 0.5, -0.4i},
		{0, 0.4i, 0.1},
	})
	require.NoError(t, err)

	res, err := e.Evolve(h, []complex128{0.6, 0.8i, 0}, 50)
	require.NoError(t, err)
	prev := vectorNorm(res.Trajectory[0])
	assert.InDelta(t, 1.0, prev, 1e-12)
	for _, state := range res.Trajectory[1:] {
		n := vectorNorm(state)
		assert.LessOrEqual(t, n, prev+1e-9)
		prev = n
	}
	assert.Less(t, prev, 1.0, "decoherence damps the state")
}

func TestEvolve_OptionsChain(t *testing.T) {
	e := newTestEngine(t)
	h, err := e.Hamiltonian(sampleChain)
	require.NoError(t, err)

	res, err := e.Evolve(h, []complex128{1, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, e.Options().TimeSteps, res.Steps)
	require.Len(t, res.Trajectory, e.Options().TimeSteps)
	require.Len(t, res.Eigenvalues, 4)
	for i := 1; i < len(res.Eigenvalues); i++ {
		assert.LessOrEqual(t, res.Eigenvalues[i-1], res.Eigenvalues[i])
	}
	assert.Equal(t, []complex128{1, 0, 0, 0}, res.Trajectory[0])
	for _, state := range res.Trajectory {
		assert.True(t, finiteVector(state))
	}
}

func TestEvolve_Errors(t *testing.T) {
	e := newTestEngine(t)
	h, err := CMatrixFromRows([][]complex128{{1, 0}, {0, 1}})
	require.NoError(t, err)

	_, err = e.Evolve(nil, []complex128{1}, 10)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.Evolve(h, []complex128{1}, 10)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = e.Evolve(h, []complex128{1, 0}, -1)
	assert.ErrorIs(t, err, ErrInvalidTimeSteps)

	_, err = e.Evolve(h, []complex128{complex(math.NaN(), 0), 0}, 10)
	assert.ErrorIs(t, err, ErrNonFinite)
}
