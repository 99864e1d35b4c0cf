package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QOFA/internal/domain/models"
	pkgkafka "QOFA/pkg/kafka"
)

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	execs   []execCall
	execErr error
}

func (f *fakeDB) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, execCall{query: q, args: args})
	return nil, f.execErr
}

func (f *fakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("query not supported")
}

func (f *fakeDB) PingContext(context.Context) error { return nil }

func TestCHTickStore_StoreTicksSkipsIncomplete(t *testing.T) {
	db := &fakeDB{}
	s := NewCHTickStore(db, "qofa", nil)

	err := s.StoreTicks(context.Background(), []models.Tick{
		{Symbol: "AAPL", Timestamp: 1710513000000, Price: 170.5, Volume: 1200, Strike: 175},
		{Symbol: "", Timestamp: 1710513000001, Price: 1},
		{Symbol: "TSLA", Timestamp: 0, Price: 1},
	})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)

	call := db.execs[0]
	assert.True(t, strings.HasPrefix(call.query, "INSERT INTO qofa.ticks"))
	assert.Equal(t, 1, strings.Count(call.query, "(?, ?, ?, ?, ?, ?)"))
	require.Len(t, call.args, 6)
	assert.Equal(t, time.UnixMilli(1710513000000).UTC(), call.args[0])
	assert.Equal(t, "AAPL", call.args[1])
	assert.Equal(t, 175.0, call.args[4])
	assert.Equal(t, "AAPL-1710513000000", call.args[5])
}

func TestCHTickStore_StoreTicksChunks(t *testing.T) {
	db := &fakeDB{}
	s := NewCHTickStore(db, "qofa", nil)

	ticks := make([]models.Tick, tickChunkSize+5)
	for i := range ticks {
		ticks[i] = models.Tick{Symbol: "SPY", Timestamp: int64(i + 1), Price: 500}
	}
	require.NoError(t, s.StoreTicks(context.Background(), ticks))
	require.Len(t, db.execs, 2)
	assert.Len(t, db.execs[0].args, tickChunkSize*6)
	assert.Len(t, db.execs[1].args, 5*6)
}

func TestCHTickStore_StoreTicksError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("too many parts")}
	s := NewCHTickStore(db, "qofa", nil)
	err := s.StoreTicks(context.Background(), []models.Tick{{Symbol: "A", Timestamp: 1}})
	assert.ErrorContains(t, err, "too many parts")
}

func TestCHTickStore_HistoryQueryError(t *testing.T) {
	s := NewCHTickStore(&fakeDB{}, "qofa", nil)
	_, err := s.History(context.Background(), "AAPL", 10)
	assert.ErrorContains(t, err, "history AAPL")
}

func TestCHStatusStore_SaveAndInit(t *testing.T) {
	db := &fakeDB{}
	s := NewCHStatusStore(db, "qofa", nil)
	require.NoError(t, s.Init(context.Background()))
	assert.Len(t, db.execs, len(Schema("qofa")))

	ts := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	require.NoError(t, s.Save(context.Background(), models.StatusCheck{ID: "id-1", ClientName: "desk", Timestamp: ts}))
	last := db.execs[len(db.execs)-1]
	assert.Contains(t, last.query, "qofa.status_checks")
	assert.Equal(t, []any{"id-1", "desk", ts}, last.args)
}

func TestSchema_UsesDatabase(t *testing.T) {
	for _, stmt := range Schema("analytics") {
		assert.Contains(t, stmt, "analytics")
	}
}

type fakeBatchPublisher struct {
	topic string
	msgs  []pkgkafka.Message
}

func (f *fakeBatchPublisher) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = msgs
	return nil
}

func TestKafkaSignalPublisher_KeysBySymbol(t *testing.T) {
	fp := &fakeBatchPublisher{}
	p := NewKafkaSignalPublisher(fp, "qofa.signals")

	require.NoError(t, p.Publish(context.Background(), nil))
	assert.Empty(t, fp.topic)

	signals := []models.TradingSignal{{Symbol: "AAPL", Action: "buy"}, {Symbol: "MSFT", Action: "sell"}}
	require.NoError(t, p.Publish(context.Background(), signals))
	assert.Equal(t, "qofa.signals", fp.topic)
	require.Len(t, fp.msgs, 2)
	assert.Equal(t, "AAPL", string(fp.msgs[0].Key))
	assert.Equal(t, signals[1], fp.msgs[1].Value)
}

func TestMemoryStatusStore_NewestFirstAndBounded(t *testing.T) {
	s := NewMemoryStatusStore(3)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Save(ctx, models.StatusCheck{ID: id}))
	}

	all, err := s.List(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids)

	two, _ := s.List(ctx, 2)
	assert.Len(t, two, 2)
}
