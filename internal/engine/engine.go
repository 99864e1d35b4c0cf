// Package engine implements the QOFA numeric core: a fixed complex basis, the
// field transform, the cross-instrument entanglement decomposition, the
// options-chain coupling matrix with its time evolution, the flow detector and
// the portfolio risk scorer.
//
// An Engine is immutable after New and safe for concurrent use.
package engine

import (
	"time"

	"QOFA/internal/domain/models"
)

// Engine holds the validated tunables and the basis built once at construction.
type Engine struct {
	opts  Options
	basis *CMatrix
	now   func() time.Time
}

// New validates opts and builds the basis.
func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	basis, err := buildBasis(opts.BasisSize)
	if err != nil {
		return nil, err
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{opts: opts, basis: basis, now: now}, nil
}

// Options returns the tunables the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Basis returns a copy of the basis set.
func (e *Engine) Basis() [][]complex128 { return e.basis.Rows() }

// Metrics reports the engine tunables.
func (e *Engine) Metrics() models.EngineMetrics {
	return models.EngineMetrics{
		PhaseScale:            e.opts.PhaseScale,
		DecoherenceTime:       e.opts.DecoherenceTime,
		EntanglementThreshold: e.opts.EntanglementThreshold,
		BasisSize:             e.opts.BasisSize,
		CoherenceDecayRate:    e.opts.CoherenceDecayRate,
		SystemStatus:          "active",
		Timestamp:             e.now().UTC(),
	}
}
