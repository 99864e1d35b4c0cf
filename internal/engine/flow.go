package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"QOFA/internal/domain/models"
)

// SignalTypeQuantumFlow tags trading signals derived from flow detection.
const SignalTypeQuantumFlow = "quantum_flow"

// DetectFlow runs the field transform over the ticks and emits one signal for
// every sample whose adjacent-amplitude correlation exceeds the correlation
// threshold while its volume spikes above VolumeSpikeFactor × mean volume.
func (e *Engine) DetectFlow(ticks []models.FlowTick) ([]models.FlowSignal, error) {
	prices := make([]float64, len(ticks))
	volumes := make([]float64, len(ticks))
	for i, t := range ticks {
		if t.Volume < 0 {
			return nil, fmt.Errorf("detect flow: tick %d volume %v: %w", i, t.Volume, ErrInvalidInput)
		}
		prices[i], volumes[i] = t.Price, t.Volume
	}
	psi, err := e.FieldTransform(prices, volumes)
	if err != nil {
		return nil, fmt.Errorf("detect flow: %w", err)
	}

	mags := make([]float64, len(psi))
	for i, z := range psi {
		mags[i] = cmplx.Abs(z)
	}
	scale := 1.0
	if e.opts.Normalization == AmplitudePeak {
		peak := floats.Max(mags)
		if peak == 0 {
			return nil, nil
		}
		scale = 1 / (peak * peak)
	}
	spike := e.opts.VolumeSpikeFactor * floats.Sum(volumes) / float64(len(volumes))

	now := e.now().UTC()
	var out []models.FlowSignal
	for i := 0; i+1 < len(psi); i++ {
		corr := mags[i] * mags[i+1] * scale
		if !(corr > e.opts.CorrelationThreshold) || !(volumes[i] > spike) {
			continue
		}
		phase := cmplx.Phase(psi[i])
		dir := models.Bearish
		if phase > 0 {
			dir = models.Bullish
		}
		out = append(out, models.FlowSignal{
			Symbol:      ticks[i].Symbol,
			Type:        e.classify(mags[i], phase, volumes[i]),
			Volume:      contracts(volumes[i]),
			Strike:      ticks[i].Strike,
			Expiration:  now.Add(e.opts.SignalExpiry),
			Confidence:  confidence(mags[i]),
			Correlation: clamp(corr, 0, 1),
			Direction:   dir,
			Timestamp:   now,
		})
	}
	return out, nil
}

func (e *Engine) classify(magnitude, phase, volume float64) models.FlowType {
	if magnitude > e.opts.MagnitudeThreshold && volume > e.opts.BlockVolume {
		switch {
		case phase > math.Pi/2:
			return models.FlowInstitutionalBlock
		case phase > 0:
			return models.FlowCallSweep
		default:
			return models.FlowPutSweep
		}
	}
	return models.FlowDarkPool
}

// contracts rounds a volume to whole contracts, saturating at MaxInt64.
func contracts(v float64) int64 {
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Round(v))
}

// confidence is 1 - 1/(1+|ψ|) clamped to [0,1].
func confidence(magnitude float64) float64 {
	if math.IsNaN(magnitude) {
		return 0
	}
	return clamp(1-1/(1+magnitude), 0, 1)
}

// TradingSignals keeps the flow signals whose confidence exceeds the signal
// confidence cut and turns each into a buy (bullish) or sell (bearish) order suggestion.
func (e *Engine) TradingSignals(flows []models.FlowSignal) []models.TradingSignal {
	var out []models.TradingSignal
	for _, f := range flows {
		if !(f.Confidence > e.opts.SignalConfidence) {
			continue
		}
		out = append(out, models.TradingSignal{
			Symbol:      f.Symbol,
			Action:      f.Direction.Action(),
			SignalType:  SignalTypeQuantumFlow,
			Confidence:  f.Confidence,
			Correlation: f.Correlation,
			Timestamp:   f.Timestamp,
			Metadata: models.SignalMetadata{
				FlowType: f.Type,
				Volume:   f.Volume,
				Strike:   f.Strike,
			},
		})
	}
	return out
}
