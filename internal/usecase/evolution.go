package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	domsvc "QOFA/internal/domain/service"
)

// EvolutionUseCase builds the options-chain coupling matrix and evolves a
// state under it.
type EvolutionUseCase struct {
	eng     domsvc.EvolutionSolver
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewEvolutionUseCase(eng domsvc.EvolutionSolver, metrics domrepo.Metrics) *EvolutionUseCase {
	return &EvolutionUseCase{eng: eng, metrics: metrics, now: time.Now}
}

// Analyze evolves initial_state, or the uniform superposition when it is
// omitted, for time_steps steps.
func (uc *EvolutionUseCase) Analyze(ctx context.Context, req models.HamiltonianRequest) (*models.EvolutionAnalysis, error) {
	start := time.Now()
	h, err := uc.eng.Hamiltonian(req.OptionsChain)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("hamiltonian: %w", err)
	}

	initial := uniformState(h.Dim())
	if len(req.InitialState) > 0 {
		initial = make([]complex128, len(req.InitialState))
		for i, c := range req.InitialState {
			initial[i] = complex(c.Real, c.Imag)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := uc.eng.Evolve(h, initial, req.TimeSteps)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("evolve: %w", err)
	}
	uc.metrics.RecordLatency("evolution", time.Since(start).Seconds())

	trajectory := make([][]models.Complex, len(res.Trajectory))
	for i, s := range res.Trajectory {
		trajectory[i] = models.ComplexVector(s)
	}
	return &models.EvolutionAnalysis{
		Eigenvalues: res.Eigenvalues,
		Trajectory:  trajectory,
		Hamiltonian: models.ComplexRows(h.Rows()),
		TimeSteps:   res.Steps,
		Timestamp:   uc.now().UTC(),
	}, nil
}

func uniformState(n int) []complex128 {
	v := make([]complex128, n)
	a := complex(1/math.Sqrt(float64(n)), 0)
	for i := range v {
		v[i] = a
	}
	return v
}
