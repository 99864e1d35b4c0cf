package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleGenerator_Deterministic(t *testing.T) {
	g := NewSampleGenerator()
	a := g.Generate(DefaultSampleSymbols, 0)
	b := g.Generate(DefaultSampleSymbols, 0)

	require.Len(t, a, len(DefaultSampleSymbols))
	assert.Equal(t, a, b)
	for i, s := range a {
		assert.Equal(t, DefaultSampleSymbols[i], s.Symbol)
		assert.Len(t, s.Prices, defaultSamplePoints)
		assert.Len(t, s.Volumes, defaultSamplePoints)
		for _, v := range s.Volumes {
			assert.GreaterOrEqual(t, v, 1000.0)
		}
	}
	assert.NotEqual(t, a[0].Prices, a[1].Prices)
}

func TestSampleGenerator_SeriesPrefixStable(t *testing.T) {
	g := NewSampleGenerator()
	short := g.Series([]string{"TSLA"}, 10)
	long := g.Series([]string{"TSLA"}, 20)
	require.Len(t, short[0].Values, 10)
	assert.Equal(t, short[0].Values, long[0].Values[:10])
}
