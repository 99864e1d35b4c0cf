package middleware

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	applogger "QOFA/pkg/logger"
)

// ErrBufferFull is returned by Submit when the symbol's shard queue is full.
var ErrBufferFull = errors.New("pipeline: shard buffer full")

// WindowProcessor analyzes one symbol's rolling window.
type WindowProcessor interface {
	ProcessWindow(ctx context.Context, symbol string, ticks []models.FlowTick) error
}

// FlowPipeline sits between tick ingestion and flow detection. Ticks are
// sharded by symbol, so each symbol's window is owned by one goroutine and
// sees its ticks in arrival order. Once a window is full, detection runs
// every stride ticks, at most once per cooldown.
type FlowPipeline struct {
	proc     WindowProcessor
	metrics  domrepo.Metrics
	log      *applogger.Logger
	window   int
	stride   int
	shards   int
	bufSize  int
	cooldown time.Duration
	now      func() time.Time

	queues  []chan models.Tick
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

type PipelineOption func(*FlowPipeline)

// WithWindow sets the rolling window length and the detection stride.
func WithWindow(window, stride int) PipelineOption {
	return func(p *FlowPipeline) {
		if window >= 2 {
			p.window = window
		}
		if stride > 0 {
			p.stride = stride
		}
	}
}

// WithShards sets the number of shard goroutines and each one's queue size.
func WithShards(shards, buffer int) PipelineOption {
	return func(p *FlowPipeline) {
		if shards > 0 {
			p.shards = shards
		}
		if buffer > 0 {
			p.bufSize = buffer
		}
	}
}

// WithCooldown sets the minimum time between detections for one symbol.
func WithCooldown(d time.Duration) PipelineOption {
	return func(p *FlowPipeline) { p.cooldown = d }
}

func NewFlowPipeline(proc WindowProcessor, metrics domrepo.Metrics, l *applogger.Logger, opts ...PipelineOption) *FlowPipeline {
	if l == nil {
		l = applogger.NewNop()
	}
	p := &FlowPipeline{
		proc:    proc,
		metrics: metrics,
		log:     l,
		window:  50,
		stride:  10,
		shards:  4,
		bufSize: 1024,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stride > p.window {
		p.stride = p.window
	}
	p.queues = make([]chan models.Tick, p.shards)
	for i := range p.queues {
		p.queues[i] = make(chan models.Tick, p.bufSize)
	}
	return p
}

// Start launches the shard workers. Calling it twice is a no-op.
func (p *FlowPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	for i, q := range p.queues {
		p.wg.Add(1)
		go p.runShard(ctx, i, q)
	}
}

// Stop halts the workers and waits for in-flight detections.
func (p *FlowPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit enqueues t without blocking.
func (p *FlowPipeline) Submit(t models.Tick) error {
	if t.Symbol == "" {
		p.metrics.RecordError("pipeline_validate")
		return fmt.Errorf("pipeline: empty symbol")
	}
	select {
	case p.queues[p.shardFor(t.Symbol)] <- t:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return ErrBufferFull
	}
}

func (p *FlowPipeline) shardFor(symbol string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return int(h.Sum32() % uint32(p.shards))
}

type symbolWindow struct {
	ticks []models.FlowTick
	since int
	last  time.Time
}

func (p *FlowPipeline) runShard(ctx context.Context, shard int, q <-chan models.Tick) {
	defer p.wg.Done()
	windows := make(map[string]*symbolWindow)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case t := <-q:
			w, ok := windows[t.Symbol]
			if !ok {
				w = &symbolWindow{ticks: make([]models.FlowTick, 0, p.window)}
				windows[t.Symbol] = w
			}
			p.push(w, t)
			if ready := p.ready(w); ready != nil {
				p.detect(ctx, shard, t.Symbol, ready)
			}
		}
	}
}

func (p *FlowPipeline) push(w *symbolWindow, t models.Tick) {
	ft := models.FlowTick{Symbol: t.Symbol, Price: t.Price, Volume: t.Volume, Strike: t.Strike}
	if len(w.ticks) == p.window {
		copy(w.ticks, w.ticks[1:])
		w.ticks[len(w.ticks)-1] = ft
	} else {
		w.ticks = append(w.ticks, ft)
	}
	w.since++
}

// ready returns a snapshot of the window when detection is due.
func (p *FlowPipeline) ready(w *symbolWindow) []models.FlowTick {
	if len(w.ticks) < p.window || w.since < p.stride {
		return nil
	}
	now := p.now()
	if !w.last.IsZero() && now.Sub(w.last) < p.cooldown {
		return nil
	}
	w.since = 0
	w.last = now
	return append([]models.FlowTick(nil), w.ticks...)
}

func (p *FlowPipeline) detect(ctx context.Context, shard int, symbol string, ticks []models.FlowTick) {
	start := time.Now()
	if err := p.proc.ProcessWindow(ctx, symbol, ticks); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.log.Warn("flow window failed",
			applogger.String("symbol", symbol),
			applogger.Int("shard", shard),
			applogger.Error(err))
		return
	}
	p.metrics.RecordLatency("pipeline_window", time.Since(start).Seconds())
}
