package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	in        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.in:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type funcHandler struct {
	topic string
	fn    func(context.Context, []byte) error
}

func (h funcHandler) Topic() string { return h.topic }

func (h funcHandler) Handle(ctx context.Context, b []byte) error { return h.fn(ctx, b) }

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, err = NewConsumer(nil)
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestProducer_PublishBatchEncodes(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy")

	err := p.PublishBatch(context.Background(), "qofa.signals", []Message{
		{Key: []byte("AAPL"), Value: map[string]float64{"confidence": 0.9}},
		{Key: []byte("TSLA"), Value: []byte(`{"raw":true}`)},
		{Value: "plain"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 3)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, 0.9, decoded["confidence"])
	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.Equal(t, `{"raw":true}`, string(w.msgs[1].Value))
	assert.Equal(t, "plain", string(w.msgs[2].Value))
	for _, m := range w.msgs {
		assert.Equal(t, "qofa.signals", m.Topic)
	}
}

func TestProducer_WrapsWriterError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "none")
	err := p.Publish(context.Background(), "t", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	assert.NoError(t, p.PublishBatch(context.Background(), "t", nil))
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}

func testConsumer(retries int) *Consumer {
	cfg := defaultConsumerConfig()
	cfg.RetryMax = retries
	cfg.BackoffMin = time.Millisecond
	cfg.BackoffMax = 2 * time.Millisecond
	cfg.WorkerCount = 2
	return newConsumer(cfg, nil)
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	c := testConsumer(0)
	r := &fakeReader{in: make(chan kafka.Message, 4)}
	c.newReader = func(string) messageReader { return r }

	var handled atomic.Int32
	c.RegisterHandler(funcHandler{topic: "qofa.ticks", fn: func(context.Context, []byte) error {
		handled.Add(1)
		return nil
	}})
	require.NoError(t, c.Start())

	for i := 0; i < 3; i++ {
		r.in <- kafka.Message{Topic: "qofa.ticks", Offset: int64(i), Value: []byte("{}")}
	}
	require.Eventually(t, func() bool { return len(r.commits()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), handled.Load())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	assert.Error(t, testConsumer(0).Start())
}

func TestConsumer_RetriesThenDLQ(t *testing.T) {
	c := testConsumer(2)
	r := &fakeReader{}
	dlq := &fakeWriter{}
	c.readers["qofa.ticks"] = r
	c.dlq = dlq
	c.cfg.DLQTopic = "qofa.ticks.dlq"

	var attempts int
	c.RegisterHandler(funcHandler{topic: "qofa.ticks", fn: func(context.Context, []byte) error {
		attempts++
		return errors.New("transient")
	}})

	c.process(kafka.Message{Topic: "qofa.ticks", Offset: 7, Key: []byte("AAPL"), Value: []byte("x")})

	assert.Equal(t, 3, attempts)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "qofa.ticks.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "AAPL", string(dlq.msgs[0].Key))
	assert.Equal(t, []int64{7}, r.commits())
}

func TestConsumer_PermanentErrorSkipsRetryAndCommitOnlyWithDLQ(t *testing.T) {
	c := testConsumer(5)
	r := &fakeReader{}
	c.readers["qofa.ticks"] = r

	var attempts int
	c.RegisterHandler(funcHandler{topic: "qofa.ticks", fn: func(context.Context, []byte) error {
		attempts++
		return &PermanentError{Err: errors.New("bad payload")}
	}})

	c.process(kafka.Message{Topic: "qofa.ticks", Offset: 1})
	assert.Equal(t, 1, attempts)
	assert.Empty(t, r.commits())
}

func TestConsumer_RecoversHandlerPanic(t *testing.T) {
	c := testConsumer(0)
	c.readers["qofa.ticks"] = &fakeReader{}
	c.RegisterHandler(funcHandler{topic: "qofa.ticks", fn: func(context.Context, []byte) error {
		panic("boom")
	}})

	err := c.handleWithRetry(c.handlers["qofa.ticks"], kafka.Message{Topic: "qofa.ticks"})
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "ERR_PANIC", hookErr.Code)
}

func TestTracingHook_PropagatesTraceID(t *testing.T) {
	c := testConsumer(0)
	c.WithHook(TracingHook(c.log))
	c.readers["qofa.ticks"] = &fakeReader{}

	var seen string
	c.RegisterHandler(funcHandler{topic: "qofa.ticks", fn: func(ctx context.Context, _ []byte) error {
		seen = TraceIDFrom(ctx)
		return nil
	}})
	c.process(kafka.Message{
		Topic:   "qofa.ticks",
		Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc-123")}},
	})
	assert.Equal(t, "abc-123", seen)
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoff(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}
