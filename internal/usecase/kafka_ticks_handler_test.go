package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
	pkgkafka "QOFA/pkg/kafka"
)

func newTicksHandler(store *fakeTickStore, sink *fakeSink) (*KafkaTicksHandler, *fakeMetrics) {
	m := newFakeMetrics()
	h := NewKafkaTicksHandler("qofa.ticks", store, sink, m)
	h.now = func() time.Time { return fixedNow }
	return h, m
}

func TestKafkaTicksHandler_StoresAndForwards(t *testing.T) {
	store, sink := &fakeTickStore{}, &fakeSink{}
	h, _ := newTicksHandler(store, sink)
	assert.Equal(t, "qofa.ticks", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL","t":1710513000,"c":170.5,"v":1200}`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL","t":1710513001000,"c":171,"v":10,"k":175}`)))

	want := []models.Tick{
		{Symbol: "AAPL", Timestamp: 1710513000000, Price: 170.5, Volume: 1200, Strike: 170.5},
		{Symbol: "AAPL", Timestamp: 1710513001000, Price: 171, Volume: 10, Strike: 175},
	}
	assert.Equal(t, want, store.stored)
	assert.Equal(t, want, sink.ticks)
}

func TestKafkaTicksHandler_MissingTimestampUsesNow(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newTicksHandler(nil, sink)
	h.store = nil
	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"SPY","c":500,"v":1}`)))
	assert.Equal(t, fixedNow.UnixMilli(), sink.ticks[0].Timestamp)
}

func TestKafkaTicksHandler_MalformedIsPermanent(t *testing.T) {
	h, m := newTicksHandler(&fakeTickStore{}, &fakeSink{})
	cases := []string{
		`not json`,
		`{"symbol":"","c":1,"v":1}`,
		`{"symbol":"A","c":0,"v":1}`,
		`{"symbol":"A","c":1,"v":-1}`,
		`{"symbol":"A","c":1,"v":1,"k":-5}`,
	}
	for _, c := range cases {
		err := h.Handle(context.Background(), []byte(c))
		var perm *pkgkafka.PermanentError
		assert.ErrorAs(t, err, &perm, c)
	}
	assert.Equal(t, 1, m.errorCount("consumer_unmarshal"))
	assert.Equal(t, 4, m.errorCount("consumer_validate"))
}

func TestKafkaTicksHandler_StoreErrorIsRetryable(t *testing.T) {
	boom := errors.New("clickhouse down")
	sink := &fakeSink{}
	h, m := newTicksHandler(&fakeTickStore{err: boom}, sink)

	err := h.Handle(context.Background(), []byte(`{"symbol":"A","t":1,"c":1,"v":1}`))
	assert.ErrorIs(t, err, boom)
	var perm *pkgkafka.PermanentError
	assert.False(t, errors.As(err, &perm))
	assert.Empty(t, sink.ticks)
	assert.Equal(t, 1, m.errorCount("consumer_store"))
}

func TestKafkaTicksHandler_SinkErrorIsSwallowed(t *testing.T) {
	h, m := newTicksHandler(&fakeTickStore{}, &fakeSink{err: errors.New("full")})
	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"A","t":1,"c":1,"v":1}`)))
	assert.Equal(t, 1, m.errorCount("consumer_pipeline"))
}
