package engine

import (
	"fmt"
	"math"
	"time"
)

// Normalization selects how the flow detector scales amplitudes before the
// adjacent-sample correlation test.
type Normalization uint8

const (
	// AmplitudePeak divides every amplitude by the peak |ψ| of the state, so the
	// adjacent correlation lies in [0,1].
	AmplitudePeak Normalization = iota
	// AmplitudeRaw compares raw magnitudes; surfaced correlations are clamped.
	AmplitudeRaw
)

// Options configures an Engine. Use DefaultOptions and override fields.
type Options struct {
	BasisSize             int
	DecoherenceTime       float64
	EntanglementThreshold float64
	CoherenceDecayRate    float64
	TimeSteps             int

	// PhaseScale plays the role of ħ in the field-transform phase exp(-i·E·k/ħ).
	PhaseScale     float64
	EnergyLookback int

	CorrelationThreshold float64
	MagnitudeThreshold   float64
	BlockVolume          float64
	VolumeSpikeFactor    float64
	SignalConfidence     float64
	SignalExpiry         time.Duration
	Normalization        Normalization

	// Clock stamps emitted signals; nil means time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the reference tunables.
func DefaultOptions() Options {
	return Options{
		BasisSize:             50,
		DecoherenceTime:       3600,
		EntanglementThreshold: 0.7,
		CoherenceDecayRate:    0.1,
		TimeSteps:             100,
		PhaseScale:            1.0,
		EnergyLookback:        10,
		CorrelationThreshold:  0.8,
		MagnitudeThreshold:    0.8,
		BlockVolume:           1000,
		VolumeSpikeFactor:     2.0,
		SignalConfidence:      0.7,
		SignalExpiry:          30 * 24 * time.Hour,
		Normalization:         AmplitudePeak,
	}
}

func (o Options) validate() error {
	if o.BasisSize <= 0 {
		return fmt.Errorf("basis size %d: %w", o.BasisSize, ErrInvalidBasisSize)
	}
	if o.TimeSteps <= 0 {
		return fmt.Errorf("time steps %d: %w", o.TimeSteps, ErrInvalidTimeSteps)
	}
	positive := map[string]float64{
		"decoherence time": o.DecoherenceTime,
		"phase scale":      o.PhaseScale,
	}
	for name, v := range positive {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %v: %w", name, v, ErrInvalidOption)
		}
	}
	if !(o.EntanglementThreshold > 0 && o.EntanglementThreshold <= 1) {
		return fmt.Errorf("entanglement threshold %v: %w", o.EntanglementThreshold, ErrInvalidOption)
	}
	nonNegative := map[string]float64{
		"coherence decay rate":  o.CoherenceDecayRate,
		"correlation threshold": o.CorrelationThreshold,
		"magnitude threshold":   o.MagnitudeThreshold,
		"block volume":          o.BlockVolume,
		"volume spike factor":   o.VolumeSpikeFactor,
		"signal confidence":     o.SignalConfidence,
	}
	for name, v := range nonNegative {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %v: %w", name, v, ErrInvalidOption)
		}
	}
	if o.EnergyLookback < 0 {
		return fmt.Errorf("energy lookback %d: %w", o.EnergyLookback, ErrInvalidOption)
	}
	if o.SignalExpiry < 0 {
		return fmt.Errorf("signal expiry %s: %w", o.SignalExpiry, ErrInvalidOption)
	}
	if o.Normalization > AmplitudeRaw {
		return fmt.Errorf("normalization %d: %w", o.Normalization, ErrInvalidOption)
	}
	return nil
}
