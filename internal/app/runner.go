package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/bot"
	"github.com/pscheid92/cyan/gateway"
	"github.com/pscheid92/cyan/internal/httpserver"
	"github.com/pscheid92/cyan/internal/metrics"
	"github.com/pscheid92/cyan/internal/platform/config"
	"github.com/pscheid92/cyan/openapi"
	"github.com/pscheid92/cyan/sessionstore/pgstore"
	"github.com/pscheid92/cyan/sessionstore/redisstore"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Setup registers the bot's handlers before the session starts.
type Setup func(s *bot.Session) error

// backend is the opened session store with the background work it needs.
type backend struct {
	store gateway.SessionStore
	ping  func(ctx context.Context) error
	close func() error
	lease *Lease
	purge *Purger
}

func openBackend(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, clock clockwork.Clock) (*backend, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		store, err := redisstore.New(cfg.RedisURL, redisstore.Options{TTL: cfg.SessionTTL, Registerer: reg})
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		lease := NewLease(store.Client(), cfg.AppID, instanceID(), clock)
		acquired, err := lease.TryAcquire(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if !acquired {
			_ = store.Close()
			return nil, ErrLeaseHeld
		}
		return &backend{store: store, ping: store.Ping, close: store.Close, lease: lease}, nil

	case config.StorePostgres:
		store, err := pgstore.Connect(ctx, cfg.DatabaseURL, pgstore.Options{TTL: cfg.SessionTTL, Registerer: reg})
		if err != nil {
			return nil, err
		}
		return &backend{
			store: store,
			ping:  store.Ping,
			close: store.Close,
			purge: NewPurger(store, cfg.SessionTTL, clock),
		}, nil

	default:
		return &backend{store: gateway.NewMemoryStore(), close: func() error { return nil }}, nil
	}
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}

// Run starts the bot described by cfg and blocks until ctx is done, the
// session ends or a component fails.
func Run(ctx context.Context, cfg *config.Config, setup Setup) error {
	clock := clockwork.NewRealClock()
	reg := metrics.NewRegistry()

	be, err := openBackend(ctx, cfg, reg, clock)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := be.close(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
	}()

	session, err := bot.New(cfg.BaseURL(), openapi.Ticket{AppID: cfg.AppID, Token: cfg.Token},
		bot.WithLogger(slog.Default()),
		bot.WithRegisterer(reg),
		bot.WithSessionStore(be.store),
		bot.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		bot.WithReconnectDelay(cfg.ReconnectDelay),
		bot.WithClock(clock),
	)
	if err != nil {
		return err
	}
	if err := setup(session); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}

	srv := httpserver.NewServer(cfg.OpsPort, reg, healthChecks(session, be))
	return serve(ctx, cfg, session, srv, be)
}

func healthChecks(session *bot.Session, be *backend) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{{
		Name: "gateway",
		Check: func(context.Context) error {
			if !session.Connected() {
				return errors.New("gateway not connected")
			}
			return nil
		},
	}, {
		Name: "platform_api",
		Check: func(context.Context) error {
			if session.Bot().Client().BreakerState() == gobreaker.StateOpen {
				return errors.New("circuit breaker open")
			}
			return nil
		},
	}}
	if be.ping != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "session_store", Check: be.ping})
	}
	return checks
}

type runnable interface {
	Run(ctx context.Context) error
}

type opsServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, cfg *config.Config, session runnable, srv opsServer, be *backend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		return session.Run(egCtx)
	})
	eg.Go(srv.Start)
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("Shutting down ops server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	if be.lease != nil {
		eg.Go(func() error { return be.lease.Hold(egCtx) })
	}
	if be.purge != nil {
		eg.Go(func() error {
			be.purge.Run(egCtx)
			return nil
		})
	}
	return eg.Wait()
}
