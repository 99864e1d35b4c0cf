package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QOFA/internal/middleware"
	icache "QOFA/internal/service/cache"
	"QOFA/internal/service/ratelimit"
	pkgch "QOFA/pkg/clickhouse"
	"QOFA/pkg/config"
	xhttp "QOFA/pkg/http"
	pkgkafka "QOFA/pkg/kafka"
	applogger "QOFA/pkg/logger"
)

const limiterSweepInterval = time.Minute

// Components are the long-lived parts the App starts and stops. Only HTTP is
// required; the rest are nil when disabled in config.
type Components struct {
	HTTP     *xhttp.Server
	Pipeline *middleware.FlowPipeline
	Consumer *pkgkafka.Consumer
	Ticks    pkgkafka.MessageHandler
	Producer *pkgkafka.Producer
	CH       *pkgch.Client
	Redis    *icache.RedisCache
	Limiter  *ratelimit.Limiter
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components
}

func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{cfg: cfg, log: l, c: c}
}

// Run starts every component and blocks until ctx is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.c.HTTP == nil {
		return errors.New("server: http server is required")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Log.Collect && a.c.Producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Log.FlushInterval,
			CountThreshold: a.cfg.Log.FlushCount,
			Topic:          a.cfg.Kafka.Topics.Logs,
			Publisher:      a.c.Producer,
		})
	}

	if a.c.Pipeline != nil {
		a.c.Pipeline.Start(runCtx)
	}

	if a.c.Consumer != nil && a.c.Ticks != nil {
		a.c.Consumer.RegisterHandler(a.c.Ticks)
		if err := a.c.Consumer.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}

	if a.c.Limiter != nil {
		go a.sweepLimiter(runCtx)
	}

	if err := a.c.HTTP.Start(); err != nil {
		a.shutdown()
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("qofa started",
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("kafka", a.c.Consumer != nil),
		applogger.Bool("clickhouse", a.c.CH != nil),
		applogger.Bool("redis", a.c.Redis != nil))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	a.shutdown()
	return nil
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.c.Limiter.Sweep(); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("keys", n))
			}
		}
	}
}

// shutdown stops intake first, then drains the pipeline, then closes clients.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown", applogger.Error(err))
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop", applogger.Error(err))
		}
	}
	if a.c.Pipeline != nil {
		a.c.Pipeline.Stop()
	}

	// flush aggregated logs while the producer is still open
	a.log.RemoveCollector()

	if a.c.Producer != nil {
		if err := a.c.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close", applogger.Error(err))
		}
	}
	if a.c.CH != nil {
		if err := a.c.CH.Close(); err != nil {
			a.log.Warn("clickhouse close", applogger.Error(err))
		}
	}
	if a.c.Redis != nil {
		if err := a.c.Redis.Close(); err != nil {
			a.log.Warn("redis close", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
