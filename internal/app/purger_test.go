package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestPurger_PurgesOnStartAndEveryTick(t *testing.T) {
	store := &countingPurger{}
	clock := clockwork.NewFakeClock()
	purger := NewPurger(store, time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		purger.Run(ctx)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, int32(1), store.calls.Load())

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return store.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestPurger_KeepsRunningAfterErrors(t *testing.T) {
	store := &countingPurger{err: errors.New("connection reset")}
	clock := clockwork.NewFakeClock()
	purger := NewPurger(store, 0, clock)
	assert.Equal(t, defaultPurgeInterval, purger.interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		purger.Run(ctx)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(defaultPurgeInterval)
	require.Eventually(t, func() bool { return store.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
