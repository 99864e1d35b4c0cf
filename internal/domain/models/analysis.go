package models

import "time"

// Series is a named real-valued sequence. Slices of Series are ordered;
// the order fixes the row/column index of every derived matrix.
type Series struct {
	Symbol string    `json:"symbol"`
	Values []float64 `json:"values"`
}

// OptionContract is one row of an options chain.
type OptionContract struct {
	Strike            float64 `json:"strike" validate:"gt=0"`
	Volume            float64 `json:"volume" validate:"gte=0"`
	ImpliedVolatility float64 `json:"implied_volatility" validate:"gte=0"`
}

// Position is a portfolio weight for one instrument.
type Position struct {
	Symbol string  `json:"symbol" validate:"required"`
	Weight float64 `json:"weight"`
}

// RiskMetrics is the fixed four-key result of a risk assessment.
type RiskMetrics struct {
	QuantumRisk          float64 `json:"quantum_risk"`
	DiversificationRatio float64 `json:"diversification_ratio"`
	EntanglementRisk     float64 `json:"entanglement_risk"`
	DecoherenceTime      float64 `json:"decoherence_time"`
}

// Complex is the JSON shape of a complex number.
type Complex struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// NewComplex converts z for serialization.
func NewComplex(z complex128) Complex { return Complex{Real: real(z), Imag: imag(z)} }

// ComplexVector converts a state vector for serialization.
func ComplexVector(v []complex128) []Complex {
	out := make([]Complex, len(v))
	for i, z := range v {
		out[i] = NewComplex(z)
	}
	return out
}

// ComplexRows converts row-major complex rows for serialization.
func ComplexRows(rows [][]complex128) [][]Complex {
	out := make([][]Complex, len(rows))
	for i, r := range rows {
		out[i] = ComplexVector(r)
	}
	return out
}

// EntangledPair is an instrument pair whose |correlation| crosses the entanglement threshold.
type EntangledPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Correlation float64 `json:"correlation"`
}

// QuantumMetrics summarizes a flow analysis run.
type QuantumMetrics struct {
	CoherenceTime         float64 `json:"coherence_time"`
	EntanglementThreshold float64 `json:"entanglement_threshold"`
	QuantumCorrelation    float64 `json:"quantum_correlation"`
	SignalCount           int     `json:"signal_count"`
}

// FlowAnalysis is the result of analyzing one symbol's price/volume series.
type FlowAnalysis struct {
	Symbol     string          `json:"symbol"`
	Flows      []FlowSignal    `json:"flows"`
	Signals    []TradingSignal `json:"signals"`
	Confidence float64         `json:"confidence"`
	Metrics    QuantumMetrics  `json:"quantum_metrics"`
	Timestamp  time.Time       `json:"timestamp"`
}

// EntanglementAnalysis is the serialized view of a decomposition.
type EntanglementAnalysis struct {
	Symbols        []string        `json:"symbols"`
	Entropy        float64         `json:"entanglement_entropy"`
	Matrix         [][]Complex     `json:"entanglement_matrix"`
	SingularValues []float64       `json:"singular_values"`
	EntangledPairs []EntangledPair `json:"entangled_pairs"`
	Source         string          `json:"source"`
	Timestamp      time.Time       `json:"timestamp"`
}

// RiskAssessment is a risk evaluation together with its inputs.
type RiskAssessment struct {
	Metrics          RiskMetrics        `json:"risk_metrics"`
	Portfolio        []Position         `json:"portfolio"`
	MarketConditions map[string]float64 `json:"market_conditions"`
	Timestamp        time.Time          `json:"timestamp"`
}

// EvolutionAnalysis is the serialized time evolution of an options-chain state.
type EvolutionAnalysis struct {
	Eigenvalues []float64   `json:"eigenvalues"`
	Trajectory  [][]Complex `json:"trajectory"`
	Hamiltonian [][]Complex `json:"hamiltonian"`
	TimeSteps   int         `json:"time_steps"`
	// Timestamp is when the evolution was computed; cached responses replay it.
	Timestamp time.Time `json:"timestamp"`
}

// EngineMetrics reports engine tunables.
type EngineMetrics struct {
	PhaseScale            float64   `json:"phase_scale"`
	DecoherenceTime       float64   `json:"decoherence_time"`
	EntanglementThreshold float64   `json:"entanglement_threshold"`
	BasisSize             int       `json:"n_basis_states"`
	CoherenceDecayRate    float64   `json:"coherence_decay_rate"`
	SystemStatus          string    `json:"system_status"`
	Timestamp             time.Time `json:"timestamp"`
}

// SampleSeries is generated demo market data for one symbol.
type SampleSeries struct {
	Symbol  string    `json:"symbol"`
	Prices  []float64 `json:"prices"`
	Volumes []float64 `json:"volumes"`
}

// StatusCheck is a persisted client heartbeat.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Tick is a single market observation ingested from Kafka.
type Tick struct {
	Symbol    string
	Timestamp int64
	Price     float64
	Volume    float64
	Strike    float64
}
