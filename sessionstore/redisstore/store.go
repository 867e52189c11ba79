// Package redisstore persists gateway sessions in a Redis hash per
// application, expiring after a TTL so a stale session is never resumed.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/gateway"
	"github.com/pscheid92/cyan/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "cyan:gateway:session:"
	defaultTTL = 10 * time.Minute

	fieldSessionID = "session_id"
	fieldSeq       = "seq"
)

type Options struct {
	TTL        time.Duration
	Registerer prometheus.Registerer
}

type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	metrics *metrics.StoreMetrics
}

var _ gateway.SessionStore = (*Store)(nil)

// New connects to the Redis server at redisURL, e.g. "redis://localhost:6379/0".
func New(redisURL string, opts Options) (*Store, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewFromClient(redis.NewClient(redisOpts), opts), nil
}

// NewFromClient wraps an existing client. The store takes ownership of it.
func NewFromClient(rdb *redis.Client, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	m := metrics.NewStoreMetrics(opts.Registerer, "redis")
	rdb.AddHook(&metricsHook{metrics: m})
	return &Store{rdb: rdb, ttl: opts.TTL, metrics: m}
}

// Client exposes the underlying client so other components can share its pool.
func (s *Store) Client() *redis.Client {
	return s.rdb
}

func key(appID string) string {
	return keyPrefix + appID
}

func (s *Store) Load(ctx context.Context, appID string) (gateway.SessionState, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, key(appID)).Result()
	if err != nil {
		return gateway.SessionState{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	id := fields[fieldSessionID]
	if id == "" {
		return gateway.SessionState{}, false, nil
	}

	seq, err := strconv.ParseInt(fields[fieldSeq], 10, 64)
	if err != nil {
		return gateway.SessionState{}, false, fmt.Errorf("corrupt session seq %q: %w", fields[fieldSeq], err)
	}
	return gateway.SessionState{SessionID: id, Seq: seq}, true, nil
}

// Save writes the session and refreshes its TTL atomically.
func (s *Store) Save(ctx context.Context, appID string, state gateway.SessionState) error {
	k := key(appID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldSessionID, state.SessionID, fieldSeq, state.Seq)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, appID string) error {
	if err := s.rdb.Del(ctx, key(appID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
