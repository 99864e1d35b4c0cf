package engine

import (
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
)

func sampleTicks(symbol string, prices, volumes []float64) []models.FlowTick {
	ticks := make([]models.FlowTick, len(prices))
	for i := range prices {
		ticks[i] = models.FlowTick{Symbol: symbol, Price: prices[i], Volume: volumes[i], Strike: 150 + float64(i)}
	}
	return ticks
}

func TestDetectFlow_SampleSeriesBounds(t *testing.T) {
	for _, norm := range []Normalization{AmplitudePeak, AmplitudeRaw} {
		e := newTestEngine(t, func(o *Options) {
			o.Normalization = norm
			o.CorrelationThreshold = 0
			o.VolumeSpikeFactor = 0
		})

		signals, err := e.DetectFlow(sampleTicks("AAPL", samplePrices, sampleVolumes))
		require.NoError(t, err)
		require.NotEmpty(t, signals, "normalization %v", norm)
		for _, s := range signals {
			assert.GreaterOrEqual(t, s.Confidence, 0.0)
			assert.LessOrEqual(t, s.Confidence, 1.0)
			assert.GreaterOrEqual(t, s.Correlation, 0.0)
			assert.LessOrEqual(t, s.Correlation, 1.0)
			assert.Equal(t, "AAPL", s.Symbol)
		}
	}
}

func TestDetectFlow_RawCorrelationClamped(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.Normalization = AmplitudeRaw
		o.CorrelationThreshold = 0
		o.VolumeSpikeFactor = 0
	})
	prices := make([]float64, 10)
	volumes := make([]float64, 10)
	for i := range prices {
		prices[i] = 10 + 0.1*float64(i%2)
		volumes[i] = 1
	}
	volumes[0] = 1e5

	psi, err := e.FieldTransform(prices, volumes)
	require.NoError(t, err)
	raw := cmplx.Abs(psi[0]) * cmplx.Abs(psi[1])
	require.Greater(t, raw, 1.0)

	signals, err := e.DetectFlow(sampleTicks("TSLA", prices, volumes))
	require.NoError(t, err)
	require.NotEmpty(t, signals)
	assert.Equal(t, 150.0, signals[0].Strike)
	assert.Equal(t, 1.0, signals[0].Correlation)
	for _, s := range signals {
		assert.LessOrEqual(t, s.Correlation, 1.0)
	}
}

func TestDetectFlow_EmitsPerQualifyingSample(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.CorrelationThreshold = 0
		o.VolumeSpikeFactor = 0
	})
	ticks := sampleTicks("SPY", samplePrices, sampleVolumes)

	psi, err := e.FieldTransform(samplePrices, sampleVolumes)
	require.NoError(t, err)
	var peak float64
	for _, z := range psi {
		peak = math.Max(peak, cmplx.Abs(z))
	}
	var want []int
	for i := 0; i+1 < len(psi); i++ {
		if cmplx.Abs(psi[i])*cmplx.Abs(psi[i+1])/(peak*peak) > 0 {
			want = append(want, i)
		}
	}

	signals, err := e.DetectFlow(ticks)
	require.NoError(t, err)
	require.Len(t, signals, len(want))
	for n, s := range signals {
		i := want[n]
		assert.Equal(t, ticks[i].Strike, s.Strike)
		assert.Equal(t, int64(sampleVolumes[i]), s.Volume)
		assert.Equal(t, fixedNow, s.Timestamp)
		assert.Equal(t, fixedNow.Add(30*24*time.Hour), s.Expiration)
		assert.InDelta(t, confidence(cmplx.Abs(psi[i])), s.Confidence, 1e-15)
		if cmplx.Phase(psi[i]) > 0 {
			assert.Equal(t, models.Bullish, s.Direction)
		} else {
			assert.Equal(t, models.Bearish, s.Direction)
		}
	}
}

func TestDetectFlow_VolumeSpikeGate(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.CorrelationThreshold = 0 })
	volumes := []float64{100, 100, 5000, 100, 100, 100, 100, 100}
	prices := []float64{10, 10.5, 10.2, 10.9, 11.3, 10.8, 11.6, 11.1}

	signals, err := e.DetectFlow(sampleTicks("QQQ", prices, volumes))
	require.NoError(t, err)
	for _, s := range signals {
		assert.Equal(t, int64(5000), s.Volume)
	}
}

func TestDetectFlow_ConstantVolumeEmitsNothing(t *testing.T) {
	e := newTestEngine(t)

	signals, err := e.DetectFlow(sampleTicks("X", []float64{1, 2, 3, 4}, []float64{10, 10, 10, 10}))
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestDetectFlow_InputErrors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.DetectFlow(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.DetectFlow(sampleTicks("X", []float64{1}, []float64{1}))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = e.DetectFlow(sampleTicks("X", []float64{1, 2, 3}, []float64{10, -1, 10}))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, IsInputError(err))
}

func TestContracts(t *testing.T) {
	assert.Equal(t, int64(0), contracts(0))
	assert.Equal(t, int64(3), contracts(2.6))
	assert.Equal(t, int64(1500), contracts(1500.4))
	assert.Equal(t, int64(math.MaxInt64), contracts(9.3e18))
	assert.Equal(t, int64(math.MaxInt64), contracts(math.MaxFloat64))
}

func TestConfidence_Bounds(t *testing.T) {
	for _, m := range []float64{0, 1e-300, 0.5, 1, 3, 1e6, 1e300, math.Inf(1), math.NaN()} {
		c := confidence(m)
		assert.GreaterOrEqual(t, c, 0.0, "magnitude %v", m)
		assert.LessOrEqual(t, c, 1.0, "magnitude %v", m)
	}
	assert.Zero(t, confidence(0))
	assert.Equal(t, 0.5, confidence(1))
}

func TestClassify(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name             string
		magnitude, phase float64
		volume           float64
		want             models.FlowType
	}{
		{"institutional block", 1.2, 2.0, 5000, models.FlowInstitutionalBlock},
		{"call sweep", 1.2, 0.3, 5000, models.FlowCallSweep},
		{"put sweep", 1.2, -0.3, 5000, models.FlowPutSweep},
		{"put sweep at zero phase", 1.2, 0, 5000, models.FlowPutSweep},
		{"small magnitude", 0.5, 2.0, 5000, models.FlowDarkPool},
		{"small volume", 1.2, 2.0, 1000, models.FlowDarkPool},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.classify(tc.magnitude, tc.phase, tc.volume))
		})
	}
}

func TestTradingSignals(t *testing.T) {
	e := newTestEngine(t)
	flows := []models.FlowSignal{
		{Symbol: "AAPL", Type: models.FlowCallSweep, Volume: 4000, Strike: 150, Confidence: 0.9, Correlation: 0.85, Direction: models.Bullish, Timestamp: fixedNow},
		{Symbol: "AAPL", Type: models.FlowDarkPool, Volume: 3000, Strike: 155, Confidence: 0.7, Correlation: 0.95, Direction: models.Bullish, Timestamp: fixedNow},
		{Symbol: "TSLA", Type: models.FlowPutSweep, Volume: 8000, Strike: 200, Confidence: 0.75, Correlation: 0.81, Direction: models.Bearish, Timestamp: fixedNow},
	}

	got := e.TradingSignals(flows)
	require.Len(t, got, 2)

	assert.Equal(t, models.TradingSignal{
		Symbol:      "AAPL",
		Action:      "buy",
		SignalType:  SignalTypeQuantumFlow,
		Confidence:  0.9,
		Correlation: 0.85,
		Timestamp:   fixedNow,
		Metadata:    models.SignalMetadata{FlowType: models.FlowCallSweep, Volume: 4000, Strike: 150},
	}, got[0])
	assert.Equal(t, "sell", got[1].Action)
	assert.Equal(t, "TSLA", got[1].Symbol)

	assert.Empty(t, e.TradingSignals(nil))
}
