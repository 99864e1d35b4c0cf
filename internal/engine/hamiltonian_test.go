package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
)

var sampleChain = []models.OptionContract{
	{Strike: 100, Volume: 4000, ImpliedVolatility: 0.25},
	{Strike: 105, Volume: 9000, ImpliedVolatility: 0.22},
	{Strike: 110, Volume: 1000, ImpliedVolatility: 0.30},
	{Strike: 120, Volume: 0, ImpliedVolatility: 0.35},
}

func TestHamiltonian_Entries(t *testing.T) {
	e := newTestEngine(t)

	h, err := e.Hamiltonian(sampleChain)
	require.NoError(t, err)
	require.Equal(t, 4, h.Dim())

	assert.InDelta(t, 0.25*0.25+4000e-6, real(h.At(0, 0)), 1e-15)
	assert.Zero(t, imag(h.At(0, 0)))

	// -1/(2·5) + 1e-6·sqrt(4000·9000)·exp(iπ/4)
	want := complex(-0.1, 0) + complex(6000e-6, 0)*cmplx.Rect(1, math.Pi/4)
	assert.InDelta(t, real(want), real(h.At(0, 1)), 1e-15)
	assert.InDelta(t, imag(want), imag(h.At(0, 1)), 1e-15)
	assert.Equal(t, h.At(0, 1), h.At(1, 0))

	// zero volume leaves only the kinetic term
	assert.Equal(t, complex(-1.0/20, 0), h.At(2, 3))

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i-j > 1 || j-i > 1 {
				assert.Zero(t, h.At(i, j), "(%d,%d)", i, j)
			}
		}
	}
}

func TestHamiltonian_KeepsCallerOrder(t *testing.T) {
	e := newTestEngine(t)

	reversed := []models.OptionContract{sampleChain[1], sampleChain[0]}
	h, err := e.Hamiltonian(reversed)
	require.NoError(t, err)
	assert.InDelta(t, 0.22*0.22+9000e-6, real(h.At(0, 0)), 1e-15)
}

func TestHamiltonian_SingleContract(t *testing.T) {
	e := newTestEngine(t)

	h, err := e.Hamiltonian(sampleChain[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, h.Dim())
}

func TestHamiltonian_Errors(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name  string
		chain []models.OptionContract
		want  error
	}{
		{"empty", nil, ErrEmptyInput},
		{"equal adjacent strikes", []models.OptionContract{
			{Strike: 100, Volume: 1, ImpliedVolatility: 0.2},
			{Strike: 100, Volume: 2, ImpliedVolatility: 0.2},
		}, ErrDegenerateStrikes},
		{"negative volume", []models.OptionContract{{Strike: 100, Volume: -1}}, ErrInvalidInput},
		{"nan strike", []models.OptionContract{{Strike: math.NaN()}}, ErrNonFinite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := e.Hamiltonian(tc.chain)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, h)
		})
	}
}
