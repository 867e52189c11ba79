// Package event defines the gateway events a bot can subscribe to and the
// dispatcher that decodes them and runs handlers in arrival order.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/cyanerr"
	"github.com/pscheid92/cyan/internal/metrics"
	"github.com/pscheid92/cyan/internal/platform/correlation"
)

const defaultQueueSize = 256

// Handler receives a decoded event.
type Handler[T any] func(ctx context.Context, payload T) error

// listener is a registered handler with its decoder bound.
type listener struct {
	info   Info
	invoke func(ctx context.Context, r Resolver, raw json.RawMessage) error
}

type envelope struct {
	name string
	raw  json.RawMessage
}

type Options struct {
	QueueSize  int
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Clock      clockwork.Clock
}

// Dispatcher decodes dispatched events and invokes the handlers registered for
// them. Handlers run one at a time on the goroutine executing Run, in the
// order events were dispatched.
type Dispatcher struct {
	resolver Resolver
	queue    chan envelope
	logger   *slog.Logger
	metrics  *metrics.DispatchMetrics
	clock    clockwork.Clock

	mu        sync.RWMutex
	listeners map[string][]listener
	intents   Intent
	frozen    bool
}

func NewDispatcher(resolver Resolver, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Dispatcher{
		resolver:  resolver,
		queue:     make(chan envelope, opts.QueueSize),
		logger:    opts.Logger.With("component", "dispatcher"),
		metrics:   metrics.NewDispatchMetrics(opts.Registerer),
		clock:     opts.Clock,
		listeners: make(map[string][]listener),
	}
}

// Listen registers handler for events of type t. Once the dispatcher is
// frozen, only types whose intent is already subscribed can be added.
func Listen[T any](d *Dispatcher, t Type[T], handler Handler[T]) error {
	l := listener{
		info: t.Info,
		invoke: func(ctx context.Context, r Resolver, raw json.RawMessage) error {
			payload, err := t.Decode(ctx, r, raw)
			if err != nil {
				return &decodeError{err: err}
			}
			return handler(ctx, payload)
		},
	}
	return d.add(l)
}

func (d *Dispatcher) add(l listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frozen && !d.intents.Has(l.info.Intent) {
		return cyanerr.InvalidOperation("cannot subscribe to new intents while connected").
			WithContext("event", l.info.Name).
			WithContext("intent", l.info.Intent.String())
	}
	d.listeners[l.info.Name] = append(d.listeners[l.info.Name], l)
	d.intents |= l.info.Intent
	return nil
}

// Intents is the union of the intents of every registered event type.
func (d *Dispatcher) Intents() Intent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.intents
}

// Freeze locks the subscribed intents, typically once they were sent to the gateway.
func (d *Dispatcher) Freeze() {
	d.mu.Lock()
	d.frozen = true
	d.mu.Unlock()
}

func (d *Dispatcher) Unfreeze() {
	d.mu.Lock()
	d.frozen = false
	d.mu.Unlock()
}

// Dispatch queues an event. It blocks while the queue is full.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw json.RawMessage) error {
	select {
	case d.queue <- envelope{name: name, raw: raw}:
		d.metrics.QueueDepth.Set(float64(len(d.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-d.queue:
			d.metrics.QueueDepth.Set(float64(len(d.queue)))
			d.handle(ctx, env)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, env envelope) {
	d.mu.RLock()
	listeners := d.listeners[env.name]
	d.mu.RUnlock()

	if len(listeners) == 0 {
		d.metrics.Events.WithLabelValues(env.name, "unhandled").Inc()
		return
	}

	ctx = correlation.WithID(ctx, correlation.NewID())
	for _, l := range listeners {
		outcome := d.invoke(ctx, env, l)
		d.metrics.Events.WithLabelValues(env.name, outcome).Inc()
	}
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprintf("handler panicked: %v", e.value) }

func (d *Dispatcher) invoke(ctx context.Context, env envelope, l listener) string {
	start := d.clock.Now()
	err := d.safeInvoke(ctx, env, l)
	d.metrics.HandlerDuration.WithLabelValues(env.name).Observe(d.clock.Since(start).Seconds())

	var (
		decodeErr *decodeError
		panicErr  *panicError
	)
	switch {
	case err == nil:
		return "handled"
	case errors.Is(err, ErrSkip):
		return "skipped"
	case errors.As(err, &decodeErr):
		d.logger.ErrorContext(ctx, "Failed to decode event", "event", env.name, "error", decodeErr.err)
		return "decode_error"
	case errors.As(err, &panicErr):
		d.metrics.HandlerErrors.WithLabelValues(env.name, "panic").Inc()
		d.logger.ErrorContext(ctx, "Event handler panicked", "event", env.name, "panic", panicErr.value)
		return "failed"
	default:
		d.metrics.HandlerErrors.WithLabelValues(env.name, "error").Inc()
		d.logger.ErrorContext(ctx, "Event handler failed", "event", env.name, "error", err)
		return "failed"
	}
}

func (d *Dispatcher) safeInvoke(ctx context.Context, env envelope, l listener) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v}
		}
	}()
	return l.invoke(ctx, d.resolver, env.raw)
}
