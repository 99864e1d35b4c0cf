package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	domsvc "QOFA/internal/domain/service"
	"QOFA/internal/engine"
	"QOFA/internal/services/features"
	applogger "QOFA/pkg/logger"
)

// PortfolioEngine is the engine surface the portfolio use case needs.
type PortfolioEngine interface {
	domsvc.EntanglementAnalyzer
	domsvc.RiskScorer
}

// PortfolioUseCase runs the entanglement decomposition and risk scoring.
// The most recent coupling matrix is kept and reused by AssessRisk.
type PortfolioUseCase struct {
	eng     PortfolioEngine
	history domrepo.SeriesStore
	sample  *SampleGenerator
	metrics domrepo.Metrics
	log     *applogger.Logger
	now     func() time.Time

	mu       sync.Mutex
	coupling *engine.CMatrix
}

// NewPortfolioUseCase builds the use case; history may be nil, in which case
// series come from the request or the sample generator.
func NewPortfolioUseCase(eng PortfolioEngine, history domrepo.SeriesStore, sample *SampleGenerator, metrics domrepo.Metrics, l *applogger.Logger) *PortfolioUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &PortfolioUseCase{eng: eng, history: history, sample: sample, metrics: metrics, log: l, now: time.Now}
}

// Entanglement decomposes the coupling between the requested instruments.
func (uc *PortfolioUseCase) Entanglement(ctx context.Context, req models.EntanglementRequest) (*models.EntanglementAnalysis, error) {
	series, source := req.Series, domrepo.SourceRequest
	if len(series) == 0 {
		series, source = uc.resolveSeries(ctx, req.Symbols, req.N)
	} else if err := matchSymbols(req.Symbols, series); err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("entanglement: %w", err)
	}

	start := time.Now()
	res, err := uc.eng.Entanglement(series)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("entanglement: %w", err)
	}
	uc.metrics.RecordLatency("entanglement", time.Since(start).Seconds())
	uc.metrics.RecordEntropy(strings.Join(res.Symbols, ","), res.Entropy)

	uc.mu.Lock()
	uc.coupling = res.Matrix
	uc.mu.Unlock()

	return &models.EntanglementAnalysis{
		Symbols:        res.Symbols,
		Entropy:        res.Entropy,
		Matrix:         models.ComplexRows(res.Matrix.Rows()),
		SingularValues: res.SingularValues,
		EntangledPairs: res.Pairs,
		Source:         string(source),
		Timestamp:      uc.now().UTC(),
	}, nil
}

// AssessRisk scores the portfolio. Market conditions missing from the
// request are derived from the instruments' price series.
func (uc *PortfolioUseCase) AssessRisk(ctx context.Context, req models.RiskRequest) (*models.RiskAssessment, error) {
	symbols := make([]string, len(req.Portfolio))
	for i, p := range req.Portfolio {
		symbols[i] = p.Symbol
	}
	conditions := req.MarketConditions
	if needsDerivedConditions(conditions, symbols) {
		series, _ := uc.resolveSeries(ctx, symbols, req.N)
		conditions = features.MarketConditions(conditions, series, features.TradingDaysPerYear)
	}

	uc.mu.Lock()
	coupling := uc.coupling
	uc.mu.Unlock()

	start := time.Now()
	m, err := uc.eng.AssessRisk(req.Portfolio, conditions, coupling)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("assess risk: %w", err)
	}
	uc.metrics.RecordLatency("risk_assessment", time.Since(start).Seconds())

	if conditions == nil {
		conditions = map[string]float64{}
	}
	return &models.RiskAssessment{
		Metrics:          m,
		Portfolio:        req.Portfolio,
		MarketConditions: conditions,
		Timestamp:        uc.now().UTC(),
	}, nil
}

// LatestCoupling returns the matrix from the last successful decomposition.
func (uc *PortfolioUseCase) LatestCoupling() *engine.CMatrix {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.coupling
}

// resolveSeries loads n-point price series from history, trimmed to a common
// length. Any miss falls back to sample data for the whole set so every
// series shares one source.
func (uc *PortfolioUseCase) resolveSeries(ctx context.Context, symbols []string, n int) ([]models.Series, domrepo.SeriesSource) {
	if n <= 0 {
		n = defaultSamplePoints
	}
	if uc.history != nil {
		if series, ok := uc.loadHistory(ctx, symbols, n); ok {
			return series, domrepo.SourceHistory
		}
	}
	return uc.sample.Series(symbols, n), domrepo.SourceSample
}

func (uc *PortfolioUseCase) loadHistory(ctx context.Context, symbols []string, n int) ([]models.Series, bool) {
	out := make([]models.Series, len(symbols))
	common := n
	for i, sym := range symbols {
		prices, err := uc.history.History(ctx, sym, n)
		if err != nil {
			uc.log.Warn("history unavailable, using sample data", applogger.String("symbol", sym), applogger.Error(err))
			return nil, false
		}
		if len(prices) < 2 {
			return nil, false
		}
		common = min(common, len(prices))
		out[i] = models.Series{Symbol: sym, Values: prices}
	}
	for i := range out {
		v := out[i].Values
		out[i].Values = v[len(v)-common:]
	}
	return out, true
}

// matchSymbols checks that symbols, when given alongside series, name the
// same instruments in the same order.
func matchSymbols(symbols []string, series []models.Series) error {
	if len(symbols) == 0 {
		return nil
	}
	if len(symbols) != len(series) {
		return fmt.Errorf("%d symbols, %d series: %w", len(symbols), len(series), engine.ErrInvalidInput)
	}
	for i, s := range series {
		if s.Symbol != symbols[i] {
			return fmt.Errorf("series %d is %q, symbols name %q: %w", i, s.Symbol, symbols[i], engine.ErrInvalidInput)
		}
	}
	return nil
}

func needsDerivedConditions(conditions map[string]float64, symbols []string) bool {
	for i, a := range symbols {
		if _, ok := conditions[engine.VolatilityKey(a)]; !ok {
			return true
		}
		for _, b := range symbols[i+1:] {
			_, ab := conditions[engine.CorrelationKey(a, b)]
			_, ba := conditions[engine.CorrelationKey(b, a)]
			if !ab && !ba {
				return true
			}
		}
	}
	return false
}
