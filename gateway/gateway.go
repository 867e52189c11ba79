// Package gateway keeps the streaming websocket connection to the platform:
// it identifies or resumes, heartbeats, reconnects, and forwards dispatched
// events to a Handler.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/cyanerr"
	"github.com/pscheid92/cyan/event"
	"github.com/pscheid92/cyan/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultReconnectDelay = 5 * time.Second

// Handler receives every dispatched event in gateway order. It should only
// return an error when ctx is done.
type Handler func(ctx context.Context, name string, raw json.RawMessage) error

type Options struct {
	AppID string
	// Token is the full identify token, "Bot {app id}.{token}".
	Token string
	// URL resolves the websocket address before every dial.
	URL     func(ctx context.Context) (string, error)
	Intents func() event.Intent
	Handler Handler
	Store   SessionStore

	// ReconnectDelay is the wait after a lost connection. Zero selects the
	// default; negative reconnects immediately.
	ReconnectDelay time.Duration
	Dialer         *websocket.Dialer

	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Clock      clockwork.Clock
}

type Gateway struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics.GatewayMetrics
	clock   clockwork.Clock

	running   atomic.Bool
	connected atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once

	mu    sync.Mutex
	state SessionState
	stop  context.CancelFunc
}

func New(opts Options) (*Gateway, error) {
	switch {
	case opts.AppID == "" || opts.Token == "":
		return nil, errors.New("gateway requires app id and token")
	case opts.URL == nil:
		return nil, errors.New("gateway requires a URL resolver")
	case opts.Handler == nil:
		return nil, errors.New("gateway requires a handler")
	}

	if opts.Intents == nil {
		opts.Intents = func() event.Intent { return event.IntentDefault }
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Gateway{
		opts:    opts,
		logger:  opts.Logger.With("component", "gateway"),
		metrics: metrics.NewGatewayMetrics(opts.Registerer),
		clock:   opts.Clock,
		ready:   make(chan struct{}),
	}, nil
}

// Ready is closed once the first session is established.
func (g *Gateway) Ready() <-chan struct{} {
	return g.ready
}

func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

// Session returns the current session state.
func (g *Gateway) Session() SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Disconnect closes the connection, forgets the session and makes Run return.
func (g *Gateway) Disconnect(ctx context.Context) error {
	if !g.connected.Load() {
		return cyanerr.InvalidOperation("gateway is not connected")
	}

	g.clearSession(ctx)
	g.mu.Lock()
	stop := g.stop
	g.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}

// Run connects and keeps the connection alive until ctx is done, Disconnect
// is called or the platform closes with a fatal code.
func (g *Gateway) Run(ctx context.Context) error {
	if !g.running.CompareAndSwap(false, true) {
		return cyanerr.InvalidOperation("gateway is already running")
	}
	defer g.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.mu.Lock()
	g.stop = cancel
	g.mu.Unlock()

	g.restore(ctx)

	for {
		err := g.connect(ctx)
		g.setDisconnected()

		if ctx.Err() != nil {
			g.metrics.Disconnects.WithLabelValues("stopped").Inc()
			g.logger.Info("Gateway stopped")
			return nil
		}

		var fatal *FatalCloseError
		if errors.As(err, &fatal) {
			g.metrics.Disconnects.WithLabelValues("fatal").Inc()
			g.logger.Error("Gateway closed with fatal code", "code", fatal.Code, "reason", fatal.Reason)
			return err
		}

		reason, delay := "connection_lost", g.opts.ReconnectDelay
		switch {
		case errors.Is(err, errReconnectRequested):
			reason, delay = "reconnect_requested", 0
		case errors.Is(err, errInvalidSession):
			reason, delay = "invalid_session", 0
		case errors.Is(err, errZombie):
			reason, delay = "zombie", 0
		}
		g.metrics.Disconnects.WithLabelValues(reason).Inc()
		g.logger.Warn("Gateway connection ended", "reason", reason, "error", err, "reconnect_in", max(delay, 0))

		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-g.clock.After(delay):
			}
		}
	}
}

func (g *Gateway) connect(ctx context.Context) error {
	url, err := g.opts.URL(ctx)
	if err != nil {
		return fmt.Errorf("resolve gateway url: %w", err)
	}
	ws, _, err := g.opts.Dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}

	c := newConnection(ws, g.logger)
	defer c.close(false)
	c.logger.Debug("Gateway connection opened", "url", url)

	interval, err := c.readHello()
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-egCtx.Done()
		c.close(ctx.Err() != nil)
		return nil
	})
	eg.Go(func() error { return g.heartbeat(egCtx, c, interval) })
	eg.Go(func() error { return g.read(egCtx, c) })

	if err := g.handshake(c); err != nil {
		c.close(false)
		_ = eg.Wait()
		return err
	}
	return eg.Wait()
}

func (g *Gateway) handshake(c *connection) error {
	if s := g.Session(); s.Resumable() {
		c.logger.Info("Resuming gateway session", "session_id", s.SessionID, "seq", s.Seq)
		return c.write(OpResume, resume{Token: g.opts.Token, SessionID: s.SessionID, Seq: s.Seq})
	}

	intents := g.opts.Intents()
	c.logger.Info("Identifying", "intents", intents.String())
	return c.write(OpIdentify, identify{
		Token:      g.opts.Token,
		Intents:    uint32(intents),
		Shard:      [2]int{0, 1},
		Properties: map[string]any{},
	})
}

func (g *Gateway) heartbeat(ctx context.Context, c *connection, interval time.Duration) error {
	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if !c.acked.Load() {
				return errZombie
			}
			if err := g.sendHeartbeat(c); err != nil {
				return err
			}
			g.persist(ctx)
		}
	}
}

func (g *Gateway) sendHeartbeat(c *connection) error {
	c.acked.Store(false)
	c.sentAt.Store(g.clock.Now().UnixNano())

	var seq any
	if s := g.Session().Seq; s > 0 {
		seq = s
	}
	return c.write(OpHeartbeat, seq)
}

func (g *Gateway) read(ctx context.Context, c *connection) error {
	for {
		p, ok, err := c.read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return g.closeError(ctx, err)
		}
		if !ok {
			continue
		}

		g.metrics.FramesReceived.WithLabelValues(p.Op.String()).Inc()
		if p.S > 0 {
			g.setSeq(p.S)
		}

		switch p.Op {
		case OpDispatch:
			if err := g.dispatch(ctx, c, p); err != nil {
				return err
			}
		case OpHeartbeat:
			if err := g.sendHeartbeat(c); err != nil {
				return err
			}
		case OpHeartbeatAck:
			c.acked.Store(true)
			sent := time.Unix(0, c.sentAt.Load())
			g.metrics.HeartbeatLatency.Observe(g.clock.Since(sent).Seconds())
		case OpReconnect:
			return errReconnectRequested
		case OpInvalidSession:
			g.clearSession(ctx)
			return errInvalidSession
		case OpHello, OpHTTPCallbackAck:
		default:
			c.logger.Debug("Ignoring gateway frame", "op", p.Op.String())
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *connection, p Payload) error {
	switch p.T {
	case event.Ready.Name:
		var r ready
		if err := json.Unmarshal(p.D, &r); err != nil {
			c.logger.Warn("Failed to decode READY", "error", err)
		}
		g.mu.Lock()
		g.state = SessionState{SessionID: r.SessionID, Seq: p.S}
		g.mu.Unlock()
		g.persist(ctx)
		g.setConnected(c, "identify")
	case event.Resumed.Name:
		g.persist(ctx)
		g.setConnected(c, "resume")
	}
	return g.opts.Handler(ctx, p.T, p.D)
}

func (g *Gateway) closeError(ctx context.Context, err error) error {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return fmt.Errorf("read gateway frame: %w", err)
	}
	switch {
	case isFatal(ce.Code):
		return &FatalCloseError{Code: ce.Code, Reason: ce.Text}
	case invalidatesSession(ce.Code):
		g.clearSession(ctx)
		return fmt.Errorf("%w: close code %d", errInvalidSession, ce.Code)
	}
	return fmt.Errorf("gateway closed the connection: %w", err)
}

func (g *Gateway) setConnected(c *connection, mode string) {
	g.connected.Store(true)
	g.metrics.Connected.Set(1)
	g.metrics.Connects.WithLabelValues(mode).Inc()
	c.logger.Info("Gateway session established", "mode", mode, "session_id", g.Session().SessionID)
	g.readyOnce.Do(func() { close(g.ready) })
}

func (g *Gateway) setDisconnected() {
	g.connected.Store(false)
	g.metrics.Connected.Set(0)
}

func (g *Gateway) setSeq(seq int64) {
	g.mu.Lock()
	g.state.Seq = seq
	g.mu.Unlock()
}

func (g *Gateway) restore(ctx context.Context) {
	state, ok, err := g.opts.Store.Load(ctx, g.opts.AppID)
	if err != nil {
		g.logger.Warn("Failed to load gateway session", "error", err)
		return
	}
	if !ok {
		return
	}
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
}

func (g *Gateway) persist(ctx context.Context) {
	s := g.Session()
	if !s.Resumable() {
		return
	}
	if err := g.opts.Store.Save(ctx, g.opts.AppID, s); err != nil {
		g.logger.WarnContext(ctx, "Failed to save gateway session", "error", err)
	}
}

func (g *Gateway) clearSession(ctx context.Context) {
	g.mu.Lock()
	g.state = SessionState{}
	g.mu.Unlock()
	if err := g.opts.Store.Clear(context.WithoutCancel(ctx), g.opts.AppID); err != nil {
		g.logger.WarnContext(ctx, "Failed to clear gateway session", "error", err)
	}
}
