package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/cyan/internal/platform/correlation"
)

const defaultPurgeInterval = 10 * time.Minute

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Purger periodically deletes expired gateway sessions from stores that do
// not expire rows on their own.
type Purger struct {
	store    expiredPurger
	interval time.Duration
	clock    clockwork.Clock
}

func NewPurger(store expiredPurger, interval time.Duration, clock clockwork.Clock) *Purger {
	if interval <= 0 {
		interval = defaultPurgeInterval
	}
	return &Purger{store: store, interval: interval, clock: clock}
}

// Run purges once immediately and then on every tick. It blocks until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) {
	p.purge(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.purge(ctx)
		}
	}
}

func (p *Purger) purge(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())

	n, err := p.store.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "Purger: failed to delete expired sessions", "error", err)
		}
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Purger: deleted expired sessions", "count", n)
	}
}
