package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const defaultLeaseTTL = 30 * time.Second

// ErrLeaseHeld is returned when another instance owns the gateway of the app.
var ErrLeaseHeld = errors.New("gateway lease is held by another instance")

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lease makes sure only one instance runs the gateway of an app at a time.
type Lease struct {
	rdb        *redis.Client
	instanceID string
	key        string
	ttl        time.Duration
	clock      clockwork.Clock
}

func NewLease(rdb *redis.Client, appID, instanceID string, clock clockwork.Clock) *Lease {
	return &Lease{
		rdb:        rdb,
		instanceID: instanceID,
		key:        "cyan:gateway:lease:" + appID,
		ttl:        defaultLeaseTTL,
		clock:      clock,
	}
}

// TryAcquire reports whether this instance now owns the lease.
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire gateway lease: %w", err)
	}
	return ok, nil
}

// Renew extends the lease. It fails when the lease expired or moved to
// another instance.
func (l *Lease) Renew(ctx context.Context) error {
	owner, err := l.rdb.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return errors.New("gateway lease lost")
	}
	if err != nil {
		return fmt.Errorf("failed to check gateway lease: %w", err)
	}
	if owner != l.instanceID {
		return fmt.Errorf("gateway lease taken by %s", owner)
	}

	ok, err := l.rdb.Expire(ctx, l.key, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to renew gateway lease: %w", err)
	}
	if !ok {
		return errors.New("gateway lease lost during renewal")
	}
	return nil
}

// Release gives the lease up if this instance still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to release gateway lease: %w", err)
	}
	return nil
}

// Hold renews the lease every half TTL until ctx is done, then releases it.
// It returns an error as soon as a renewal fails.
func (l *Lease) Hold(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Failed to release gateway lease", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := l.Renew(ctx); err != nil {
				return err
			}
		}
	}
}
