//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"QOFA/internal/usecase"
	"QOFA/pkg/config"
	"QOFA/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideEngine,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideStatusStore,
		ProvideTickStore,
		ProvideSeriesStore,
		ProvideSignalPublisher,
		ProvideResponseCache,
		ProvideRateLimiter,

		// Use cases
		usecase.NewSampleGenerator,
		usecase.NewStatusUseCase,
		ProvideFlowAnalysis,
		ProvidePortfolio,
		ProvideEvolution,
		ProvideFlowPipeline,
		ProvideKafkaTicksHandler,

		// HTTP
		ProvideQuantumHandler,
		ProvideStatusHandler,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
