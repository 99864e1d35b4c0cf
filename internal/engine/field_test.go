package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	samplePrices  = []float64{150.0, 151.2, 149.8, 152.1, 150.9, 153.4, 152.0, 154.2, 153.1, 155.0}
	sampleVolumes = []float64{1000000, 1200000, 800000, 1500000, 900000, 1800000, 1100000, 2000000, 1300000, 1600000}
)

func TestFieldTransform_SampleSeries(t *testing.T) {
	e := newTestEngine(t)

	psi, err := e.FieldTransform(samplePrices, sampleVolumes)
	require.NoError(t, err)
	require.Len(t, psi, len(samplePrices))
	for i, z := range psi {
		assert.True(t, finiteComplex(z), "psi[%d] = %v", i, z)
	}

	again, err := e.FieldTransform(samplePrices, sampleVolumes)
	require.NoError(t, err)
	assert.Equal(t, psi, again)
}

func TestFieldTransform_LengthMatchesInput(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.BasisSize = 8 })
	for _, l := range []int{2, 7, 8, 9, 64} {
		prices := make([]float64, l)
		volumes := make([]float64, l)
		for i := range prices {
			prices[i] = 100 + math.Sin(float64(i))
			volumes[i] = 1000 + 250*math.Cos(float64(i)*0.7)
		}
		psi, err := e.FieldTransform(prices, volumes)
		require.NoError(t, err, "len %d", l)
		assert.Len(t, psi, l)
	}
}

func TestFieldTransform_ConstantSeries(t *testing.T) {
	e := newTestEngine(t)

	cases := map[string][2][]float64{
		"constant both":   {{5, 5, 5, 5}, {10, 10, 10, 10}},
		"constant price":  {{5, 5, 5, 5}, {10, 30, 20, 40}},
		"constant volume": {{1, 2, 3, 4}, {10, 10, 10, 10}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			psi, err := e.FieldTransform(in[0], in[1])
			require.NoError(t, err)
			require.Len(t, psi, 4)
			for _, z := range psi {
				assert.True(t, finiteComplex(z))
			}
		})
	}

	psi, err := e.FieldTransform([]float64{1, 2, 3}, []float64{7, 7, 7})
	require.NoError(t, err)
	assert.Equal(t, make([]complex128, 3), psi, "zero-variance volume gives zero coefficients")
}

func TestFieldTransform_NegativeVolumeContributesNothing(t *testing.T) {
	e := newTestEngine(t)

	// Only the first sample has a positive normalized volume, and basis row 0
	// is exp(-k²/2), so ψ = c₀·exp(-k²/2)·exp(-i·E₀·k) with E₀ = 0.
	volumes := []float64{10, 1, 1, 1}
	prices := []float64{3, 1, 2, 4}
	psi, err := e.FieldTransform(prices, volumes)
	require.NoError(t, err)

	normVolume := zscore(volumes)
	normPrice := zscore(prices)
	c0 := complex(math.Sqrt(normVolume[0]), 0) * complex(math.Cos(normPrice[0]), math.Sin(normPrice[0]))
	for k, z := range psi {
		want := c0 * complex(math.Exp(-0.5*float64(k*k)), 0)
		assert.InDelta(t, real(want), real(z), 1e-12, "k=%d", k)
		assert.InDelta(t, imag(want), imag(z), 1e-12, "k=%d", k)
	}
}

func TestFieldTransform_InputErrors(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name    string
		prices  []float64
		volumes []float64
		want    error
	}{
		{"empty", nil, nil, ErrEmptyInput},
		{"single sample", []float64{1}, []float64{1}, ErrInsufficientData},
		{"mismatch", []float64{1, 2, 3}, []float64{1, 2}, ErrLengthMismatch},
		{"nan price", []float64{1, math.NaN()}, []float64{1, 2}, ErrNonFinite},
		{"inf volume", []float64{1, 2}, []float64{math.Inf(1), 2}, ErrNonFinite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			psi, err := e.FieldTransform(tc.prices, tc.volumes)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsInputError(err))
			assert.Nil(t, psi)
		})
	}
}
