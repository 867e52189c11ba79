// Package pgstore persists gateway sessions in PostgreSQL. The schema is
// embedded and migrated on Connect.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/gateway"
	"github.com/pscheid92/cyan/internal/metrics"
)

const defaultTTL = 10 * time.Minute

type Options struct {
	TTL        time.Duration
	Registerer prometheus.Registerer
}

type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

var _ gateway.SessionStore = (*Store)(nil)

// Connect opens a pool, verifies it and runs pending migrations.
func Connect(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	m := metrics.NewStoreMetrics(opts.Registerer, "postgres")
	poolCfg.ConnConfig.Tracer = &metricsTracer{metrics: m}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		m.ConnectionErrors.Inc()
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		m.ConnectionErrors.Inc()
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Info("Session store connected", "backend", "postgres", "max_conns", poolCfg.MaxConns)

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, ttl: opts.TTL}, nil
}

func (s *Store) Load(ctx context.Context, appID string) (gateway.SessionState, bool, error) {
	var state gateway.SessionState
	err := s.pool.QueryRow(ctx,
		`SELECT session_id, seq FROM gateway_sessions WHERE app_id = $1 AND expires_at > now()`,
		appID,
	).Scan(&state.SessionID, &state.Seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return gateway.SessionState{}, false, nil
	}
	if err != nil {
		return gateway.SessionState{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return state, true, nil
}

func (s *Store) Save(ctx context.Context, appID string, state gateway.SessionState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gateway_sessions (app_id, session_id, seq, updated_at, expires_at)
		VALUES ($1, $2, $3, now(), now() + $4::double precision * interval '1 second')
		ON CONFLICT (app_id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    seq        = EXCLUDED.seq,
		    updated_at = EXCLUDED.updated_at,
		    expires_at = EXCLUDED.expires_at`,
		appID, state.SessionID, state.Seq, s.ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, appID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM gateway_sessions WHERE app_id = $1`, appID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// PurgeExpired deletes sessions whose TTL has passed and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM gateway_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
