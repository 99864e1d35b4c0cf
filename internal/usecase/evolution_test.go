package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
	"QOFA/internal/engine"
)

func newEvolutionUseCase(t *testing.T) (*EvolutionUseCase, *fakeMetrics) {
	t.Helper()
	eng, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	m := newFakeMetrics()
	uc := NewEvolutionUseCase(eng, m)
	return uc, m
}

func TestEvolution_UniformDefaultState(t *testing.T) {
	uc, m := newEvolutionUseCase(t)
	res, err := uc.Analyze(context.Background(), models.HamiltonianRequest{
		OptionsChain: []models.OptionContract{
			{Strike: 100, Volume: 500, ImpliedVolatility: 0.2},
			{Strike: 110, Volume: 300, ImpliedVolatility: 0.25},
		},
		TimeSteps: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TimeSteps)
	require.Len(t, res.Trajectory, 5)
	for _, c := range res.Trajectory[0] {
		assert.InDelta(t, 1/math.Sqrt2, c.Real, 1e-12)
		assert.Equal(t, 0.0, c.Imag)
	}
	assert.Len(t, res.Hamiltonian, 2)
	assert.Len(t, res.Eigenvalues, 2)
	assert.LessOrEqual(t, res.Eigenvalues[0], res.Eigenvalues[1])
	assert.Equal(t, 1, m.ops["evolution"])
}

func TestEvolution_ExplicitState(t *testing.T) {
	uc, _ := newEvolutionUseCase(t)
	res, err := uc.Analyze(context.Background(), models.HamiltonianRequest{
		OptionsChain: []models.OptionContract{{Strike: 100, Volume: 0, ImpliedVolatility: 0.3}},
		InitialState: []models.Complex{{Real: 0, Imag: 1}},
		TimeSteps:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Complex{Real: 0, Imag: 1}, res.Trajectory[0][0])
}

func TestEvolution_Errors(t *testing.T) {
	uc, m := newEvolutionUseCase(t)
	_, err := uc.Analyze(context.Background(), models.HamiltonianRequest{
		OptionsChain: []models.OptionContract{{Strike: 100}, {Strike: 100}},
		TimeSteps:    3,
	})
	assert.ErrorIs(t, err, engine.ErrDegenerateStrikes)
	assert.Equal(t, 1, m.errorCount("engine_degenerate"))

	_, err = uc.Analyze(context.Background(), models.HamiltonianRequest{
		OptionsChain: []models.OptionContract{{Strike: 100}, {Strike: 105}},
		InitialState: []models.Complex{{Real: 1}},
		TimeSteps:    3,
	})
	assert.ErrorIs(t, err, engine.ErrLengthMismatch)
}
