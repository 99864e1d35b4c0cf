package di

import (
	"context"
	"fmt"
	"time"

	"QOFA/internal/domain/repository"
	"QOFA/internal/engine"
	"QOFA/internal/handler/api"
	mid "QOFA/internal/middleware"
	internalrepo "QOFA/internal/repository"
	icache "QOFA/internal/service/cache"
	"QOFA/internal/service/ratelimit"
	"QOFA/internal/usecase"
	pkgch "QOFA/pkg/clickhouse"
	"QOFA/pkg/config"
	xhttp "QOFA/pkg/http"
	pkgkafka "QOFA/pkg/kafka"
	applogger "QOFA/pkg/logger"
	"QOFA/pkg/metrics"
	"QOFA/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "qofa")), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine builds the numeric engine from the engine section.
func ProvideEngine(cfg *config.Config) (*engine.Engine, error) {
	e := cfg.Engine
	opts := engine.DefaultOptions()
	opts.BasisSize = e.BasisSize
	opts.DecoherenceTime = e.DecoherenceTime
	opts.EntanglementThreshold = e.EntanglementThreshold
	opts.CoherenceDecayRate = e.CoherenceDecayRate
	opts.TimeSteps = e.TimeSteps
	opts.PhaseScale = e.PhaseScale
	opts.EnergyLookback = e.EnergyLookback
	opts.CorrelationThreshold = e.CorrelationThreshold
	opts.MagnitudeThreshold = e.MagnitudeThreshold
	opts.BlockVolume = e.BlockVolume
	opts.VolumeSpikeFactor = e.VolumeSpikeFactor
	opts.SignalConfidence = e.SignalConfidence
	opts.SignalExpiry = e.SignalExpiry
	if e.Normalization == "raw" {
		opts.Normalization = engine.AmplitudeRaw
	}
	eng, err := engine.New(opts)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return eng, nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the schema.
// It returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host, ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithAsyncInsert(ch.AsyncInsert, false),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema(ch.Database)...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideStatusStore uses ClickHouse when available, else a bounded in-memory store.
func ProvideStatusStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.StatusStore {
	if ch == nil {
		return internalrepo.NewMemoryStatusStore(usecase.StatusListLimit)
	}
	return internalrepo.NewCHStatusStore(ch.DB(), cfg.ClickHouse.Database, l)
}

// ProvideTickStore returns nil when ClickHouse is disabled.
func ProvideTickStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.TickStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHTickStore(ch.DB(), cfg.ClickHouse.Database, l)
}

// ProvideSeriesStore exposes tick history for series lookups.
func ProvideSeriesStore(ticks repository.TickStore) repository.SeriesStore {
	if ticks == nil {
		return nil
	}
	return ticks
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithDelivery(k.RequiredAcks, k.Producer.MaxAttempts, k.Producer.WriteTimeout),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.BatchBytes, k.Producer.Linger),
		pkgkafka.WithAsync(k.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher publishes trading signals to Kafka, or drops them
// when Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SignalPublisher {
	if producer == nil {
		return internalrepo.NopSignalPublisher{}
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topics.Signals)
}

// ProvideKafkaConsumer returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers, c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithHook(pkgkafka.TracingHook(l))
	return consumer, nil
}

func ProvideFlowAnalysis(eng *engine.Engine, pub repository.SignalPublisher, m repository.Metrics, l *applogger.Logger) *usecase.FlowAnalysisUseCase {
	return usecase.NewFlowAnalysisUseCase(eng, eng.Options(), pub, m, l)
}

func ProvidePortfolio(eng *engine.Engine, history repository.SeriesStore, sample *usecase.SampleGenerator, m repository.Metrics, l *applogger.Logger) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(eng, history, sample, m, l)
}

func ProvideEvolution(eng *engine.Engine, m repository.Metrics) *usecase.EvolutionUseCase {
	return usecase.NewEvolutionUseCase(eng, m)
}

// ProvideFlowPipeline builds the streaming window pipeline fed by Kafka ticks.
func ProvideFlowPipeline(cfg *config.Config, flow *usecase.FlowAnalysisUseCase, m repository.Metrics, l *applogger.Logger) *mid.FlowPipeline {
	p := cfg.Pipeline
	return mid.NewFlowPipeline(flow, m, l,
		mid.WithWindow(p.Window, p.Stride),
		mid.WithShards(p.Shards, p.Buffer),
		mid.WithCooldown(p.Cooldown),
	)
}

func ProvideKafkaTicksHandler(cfg *config.Config, store repository.TickStore, pipe *mid.FlowPipeline, m repository.Metrics) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topics.Ticks, store, pipe, m)
}

// ProvideRedisCache returns nil when Redis is disabled or unreachable; the
// response cache then falls back to memory.
func ProvideRedisCache(cfg *config.Config, l *applogger.Logger) *icache.RedisCache {
	r := cfg.Cache.Redis
	if !r.Enabled {
		return nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory cache", applogger.String("addr", r.Addr), applogger.Error(err))
		_ = rc.Close()
		return nil
	}
	return rc
}

func ProvideResponseCache(rc *icache.RedisCache) icache.BytesCache {
	if rc == nil {
		return icache.NewTTLCache()
	}
	return rc
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func ProvideQuantumHandler(
	cfg *config.Config,
	flow *usecase.FlowAnalysisUseCase,
	portfolio *usecase.PortfolioUseCase,
	evolution *usecase.EvolutionUseCase,
	sample *usecase.SampleGenerator,
	eng *engine.Engine,
	cache icache.BytesCache,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) *api.QuantumHandler {
	h := api.NewQuantumHandler(flow, portfolio, evolution, sample, eng, l)
	h.SetCache(cache, cfg.Cache.TTL)
	if rl != nil {
		h.SetRateLimiter(rl)
	}
	return h
}

func ProvideStatusHandler(uc *usecase.StatusUseCase, l *applogger.Logger) *api.StatusHandler {
	return api.NewStatusHandler(uc, l)
}

func ProvideHTTPHandler(q *api.QuantumHandler, s *api.StatusHandler) xhttp.Handler {
	return api.NewRoutes(q, s)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	pipe *mid.FlowPipeline,
	consumer *pkgkafka.Consumer,
	ticks *usecase.KafkaTicksHandler,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	rc *icache.RedisCache,
	rl *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, server.Components{
		HTTP:     httpServer,
		Pipeline: pipe,
		Consumer: consumer,
		Ticks:    ticks,
		Producer: producer,
		CH:       ch,
		Redis:    rc,
		Limiter:  rl,
	})
}
