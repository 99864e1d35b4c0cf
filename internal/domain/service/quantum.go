package service

import (
	"QOFA/internal/domain/models"
	"QOFA/internal/engine"
)

// FlowDetector turns price/volume ticks into flow and trading signals.
type FlowDetector interface {
	FieldTransform(prices, volumes []float64) ([]complex128, error)
	DetectFlow(ticks []models.FlowTick) ([]models.FlowSignal, error)
	TradingSignals(flows []models.FlowSignal) []models.TradingSignal
}

// EntanglementAnalyzer decomposes cross-instrument coupling.
type EntanglementAnalyzer interface {
	Entanglement(series []models.Series) (*engine.EntanglementResult, error)
}

// RiskScorer evaluates portfolio risk against an optional coupling matrix.
type RiskScorer interface {
	AssessRisk(positions []models.Position, conditions map[string]float64, coupling *engine.CMatrix) (models.RiskMetrics, error)
}

// EvolutionSolver builds options-chain coupling matrices and evolves states under them.
type EvolutionSolver interface {
	Hamiltonian(chain []models.OptionContract) (*engine.CMatrix, error)
	Evolve(h *engine.CMatrix, initial []complex128, steps int) (*engine.EvolutionResult, error)
}

// QuantumEngine is the full numeric core.
type QuantumEngine interface {
	FlowDetector
	EntanglementAnalyzer
	RiskScorer
	EvolutionSolver
	Metrics() models.EngineMetrics
}

var _ QuantumEngine = (*engine.Engine)(nil)
