package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/cyan/gateway"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, opts Options) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New("redis://"+mr.Addr(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_SaveLoadClear(t *testing.T) {
	s, _ := setupStore(t, Options{})
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "app")
	require.NoError(t, err)
	assert.False(t, ok)

	state := gateway.SessionState{SessionID: "sess-1", Seq: 42}
	require.NoError(t, s.Save(ctx, "app", state))

	got, ok, err := s.Load(ctx, "app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state, got)

	require.NoError(t, s.Clear(ctx, "app"))
	_, ok, err = s.Load(ctx, "app")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_KeyedByApp(t *testing.T) {
	s, mr := setupStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a", gateway.SessionState{SessionID: "one", Seq: 1}))
	require.NoError(t, s.Save(ctx, "b", gateway.SessionState{SessionID: "two", Seq: 2}))

	assert.Equal(t, "one", mr.HGet("cyan:gateway:session:a", "session_id"))
	assert.Equal(t, "2", mr.HGet("cyan:gateway:session:b", "seq"))
}

func TestStore_Expires(t *testing.T) {
	s, mr := setupStore(t, Options{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "app", gateway.SessionState{SessionID: "sess", Seq: 1}))
	assert.Equal(t, time.Minute, mr.TTL("cyan:gateway:session:app"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Load(ctx, "app")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveRefreshesTTL(t *testing.T) {
	s, mr := setupStore(t, Options{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "app", gateway.SessionState{SessionID: "sess", Seq: 1}))
	mr.FastForward(50 * time.Second)
	require.NoError(t, s.Save(ctx, "app", gateway.SessionState{SessionID: "sess", Seq: 2}))
	mr.FastForward(50 * time.Second)

	got, ok, err := s.Load(ctx, "app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Seq)
}

func TestStore_CorruptSeq(t *testing.T) {
	s, mr := setupStore(t, Options{})
	mr.HSet("cyan:gateway:session:app", "session_id", "sess", "seq", "not-a-number")

	_, _, err := s.Load(context.Background(), "app")
	assert.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	s, mr := setupStore(t, Options{})
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("://nope", Options{})
	assert.Error(t, err)
}

func TestMetricsHook(t *testing.T) {
	mr := miniredis.RunT(t)
	reg := prometheus.NewRegistry()
	s := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), Options{Registerer: reg})
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "app", gateway.SessionState{SessionID: "sess", Seq: 1}))
	_, _, err := s.Load(ctx, "app")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.OpsTotal.WithLabelValues("hgetall", "success")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(s.metrics.OpsTotal.WithLabelValues("pipeline", "success")), 1.0)
	assert.Positive(t, testutil.CollectAndCount(s.metrics.OpDuration))
}
