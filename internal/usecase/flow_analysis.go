package usecase

import (
	"context"
	"fmt"
	"math/cmplx"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	domsvc "QOFA/internal/domain/service"
	"QOFA/internal/engine"
	applogger "QOFA/pkg/logger"
)

// FlowAnalysisUseCase detects flow anomalies for one symbol, derives trading
// signals and publishes them.
type FlowAnalysisUseCase struct {
	eng     domsvc.FlowDetector
	opts    engine.Options
	pub     domrepo.SignalPublisher
	metrics domrepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

func NewFlowAnalysisUseCase(eng domsvc.FlowDetector, opts engine.Options, pub domrepo.SignalPublisher, metrics domrepo.Metrics, l *applogger.Logger) *FlowAnalysisUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &FlowAnalysisUseCase{eng: eng, opts: opts, pub: pub, metrics: metrics, log: l, now: time.Now}
}

// Analyze runs detection over an HTTP request. Strikes default to prices
// when strike_data is omitted.
func (uc *FlowAnalysisUseCase) Analyze(ctx context.Context, req models.FlowRequest) (*models.FlowAnalysis, error) {
	ticks, err := ticksFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("analyze flow: %w", err)
	}
	res, err := uc.run(ctx, req.Symbol, ticks)
	if err != nil {
		return nil, fmt.Errorf("analyze flow: %w", err)
	}
	return res, nil
}

// ProcessWindow analyzes a rolling window fed by the tick pipeline.
func (uc *FlowAnalysisUseCase) ProcessWindow(ctx context.Context, symbol string, ticks []models.FlowTick) error {
	res, err := uc.run(ctx, symbol, ticks)
	if err != nil {
		return fmt.Errorf("process window %s: %w", symbol, err)
	}
	if len(res.Signals) > 0 {
		uc.log.Info("flow signals emitted",
			applogger.String("symbol", symbol),
			applogger.Int("signals", len(res.Signals)),
			applogger.Float64("confidence", res.Confidence))
	}
	return nil
}

func (uc *FlowAnalysisUseCase) run(ctx context.Context, symbol string, ticks []models.FlowTick) (*models.FlowAnalysis, error) {
	start := time.Now()
	flows, err := uc.eng.DetectFlow(ticks)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, err
	}
	prices := make([]float64, len(ticks))
	volumes := make([]float64, len(ticks))
	for i, t := range ticks {
		prices[i], volumes[i] = t.Price, t.Volume
	}
	psi, err := uc.eng.FieldTransform(prices, volumes)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, err
	}
	signals := uc.eng.TradingSignals(flows)
	uc.metrics.RecordLatency("flow_detection", time.Since(start).Seconds())

	var conf float64
	for _, f := range flows {
		conf += f.Confidence
	}
	if len(flows) > 0 {
		conf /= float64(len(flows))
	}
	var meanAmp float64
	for _, z := range psi {
		meanAmp += cmplx.Abs(z)
	}
	meanAmp /= float64(len(psi))

	for _, s := range signals {
		uc.metrics.RecordSignal(s.SignalType, s.Metadata.FlowType.String())
	}
	if err := uc.pub.Publish(ctx, signals); err != nil {
		// best effort
		uc.metrics.RecordError("signal_publish")
		uc.log.Error("publish trading signals",
			applogger.String("symbol", symbol),
			applogger.Int("signals", len(signals)),
			applogger.Error(err))
	}

	return &models.FlowAnalysis{
		Symbol:     symbol,
		Flows:      flows,
		Signals:    signals,
		Confidence: conf,
		Metrics: models.QuantumMetrics{
			CoherenceTime:         uc.opts.DecoherenceTime,
			EntanglementThreshold: uc.opts.EntanglementThreshold,
			QuantumCorrelation:    meanAmp,
			SignalCount:           len(flows),
		},
		Timestamp: uc.now().UTC(),
	}, nil
}

func ticksFromRequest(req models.FlowRequest) ([]models.FlowTick, error) {
	n := len(req.PriceData)
	if len(req.VolumeData) != n {
		return nil, fmt.Errorf("%d prices, %d volumes: %w", n, len(req.VolumeData), engine.ErrLengthMismatch)
	}
	if len(req.StrikeData) != 0 && len(req.StrikeData) != n {
		return nil, fmt.Errorf("%d prices, %d strikes: %w", n, len(req.StrikeData), engine.ErrLengthMismatch)
	}
	ticks := make([]models.FlowTick, n)
	for i := range ticks {
		strike := req.PriceData[i]
		if len(req.StrikeData) > 0 {
			strike = req.StrikeData[i]
		}
		ticks[i] = models.FlowTick{Symbol: req.Symbol, Price: req.PriceData[i], Volume: req.VolumeData[i], Strike: strike}
	}
	return ticks, nil
}

// errorKind buckets errors for the errors-by-kind metric.
func errorKind(err error) string {
	switch {
	case engine.IsInputError(err):
		return "engine_input"
	case engine.IsDegenerate(err):
		return "engine_degenerate"
	default:
		return "internal"
	}
}
