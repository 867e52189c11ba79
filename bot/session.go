// Package bot ties the REST client, the gateway and the event dispatcher
// together into a Session that runs user handlers against a Bot.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pscheid92/cyan/cyanerr"
	"github.com/pscheid92/cyan/event"
	"github.com/pscheid92/cyan/gateway"
	"github.com/pscheid92/cyan/openapi"
	"golang.org/x/sync/errgroup"
)

// Base URLs of the platform API.
const (
	BaseURL        = "https://api.sgroup.qq.com/"
	SandboxBaseURL = "https://sandbox.api.sgroup.qq.com/"
)

// StartedFunc runs once the first gateway session is established.
type StartedFunc func(ctx context.Context, b *Bot) error

// Session is a bot connected to the platform. Handlers are registered with On
// before or while it runs.
type Session struct {
	bot        *Bot
	dispatcher *event.Dispatcher
	gateway    *gateway.Gateway
	logger     *slog.Logger

	running     atomic.Bool
	mu          sync.Mutex
	started     []StartedFunc
	startedOnce sync.Once
}

// New creates a session for the API rooted at baseURL.
func New(baseURL string, ticket openapi.Ticket, opts ...Option) (*Session, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.client.Logger == nil {
		s.client.Logger = slog.Default()
	}
	logger := s.client.Logger

	client, err := openapi.NewClient(baseURL, ticket, s.client)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	b := newBot(client)
	d := event.NewDispatcher(b, event.Options{
		QueueSize:  s.queueSize,
		Logger:     logger,
		Registerer: s.client.Registerer,
		Clock:      s.client.Clock,
	})

	gw, err := gateway.New(gateway.Options{
		AppID:          ticket.AppID,
		Token:          ticket.Authorization(),
		URL:            client.GatewayURL,
		Intents:        d.Intents,
		Handler:        d.Dispatch,
		Store:          s.store,
		ReconnectDelay: s.reconnectDelay,
		Dialer:         s.dialer,
		Logger:         logger,
		Registerer:     s.client.Registerer,
		Clock:          s.client.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	return &Session{
		bot:        b,
		dispatcher: d,
		gateway:    gw,
		logger:     logger.With("component", "session"),
	}, nil
}

// Bot returns the facade passed to handlers.
func (s *Session) Bot() *Bot {
	return s.bot
}

// OnStarted registers fn to run after the first READY or RESUMED of the
// session. Errors are logged.
func (s *Session) OnStarted(fn StartedFunc) {
	s.mu.Lock()
	s.started = append(s.started, fn)
	s.mu.Unlock()
}

// On registers handler for events of type t. While the session runs, only
// events covered by the already subscribed intents can be added.
func On[T any](s *Session, t event.Type[T], handler func(ctx context.Context, b *Bot, payload T) error) error {
	return event.Listen(s.dispatcher, t, func(ctx context.Context, payload T) error {
		return handler(ctx, s.bot, payload)
	})
}

func (s *Session) Connected() bool {
	return s.gateway.Connected()
}

// Disconnect closes the gateway connection, forgets the session and makes Run return.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.gateway.Disconnect(ctx)
}

// Run connects the session and dispatches events until ctx is done,
// Disconnect is called or the platform closes the gateway with a fatal code.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return cyanerr.InvalidOperation("session is already running")
	}
	defer s.running.Store(false)

	me, err := s.bot.refreshMe(ctx)
	if err != nil {
		return fmt.Errorf("fetch bot user: %w", err)
	}
	s.logger.Info("Starting session", "bot_id", me.ID, "bot_name", me.Username)

	s.dispatcher.Freeze()
	defer s.dispatcher.Unfreeze()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.dispatcher.Run(egCtx)
	})
	eg.Go(func() error {
		defer cancel()
		return s.gateway.Run(egCtx)
	})
	eg.Go(func() error {
		select {
		case <-egCtx.Done():
		case <-s.gateway.Ready():
			s.startedOnce.Do(func() { s.runStarted(egCtx) })
		}
		return nil
	})
	return eg.Wait()
}

func (s *Session) runStarted(ctx context.Context) {
	s.mu.Lock()
	hooks := append([]StartedFunc(nil), s.started...)
	s.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx, s.bot); err != nil {
			s.logger.ErrorContext(ctx, "Started hook failed", "error", err)
		}
	}
}
