package bot

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/gateway"
	"github.com/pscheid92/cyan/openapi"
	"golang.org/x/time/rate"
)

type settings struct {
	client         openapi.Options
	store          gateway.SessionStore
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	queueSize      int
}

// Option configures a Session.
type Option func(*settings)

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.client.Logger = l }
}

// WithRegisterer registers the SDK's metrics with reg. Without it metrics are
// collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) { s.client.Registerer = reg }
}

// WithSessionStore persists the gateway session so a restart resumes it.
func WithSessionStore(store gateway.SessionStore) Option {
	return func(s *settings) { s.store = store }
}

func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *settings) {
		s.client.RateLimit = limit
		s.client.RateBurst = burst
	}
}

func WithReconnectDelay(d time.Duration) Option {
	return func(s *settings) { s.reconnectDelay = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.client.HTTPClient = c }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(s *settings) { s.dialer = d }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *settings) { s.client.Clock = c }
}

// WithClientOptions replaces the REST client options wholesale. Options
// applied after it still take effect.
func WithClientOptions(o openapi.Options) Option {
	return func(s *settings) { s.client = o }
}

// WithQueueSize bounds the number of events waiting for handlers.
func WithQueueSize(n int) Option {
	return func(s *settings) { s.queueSize = n }
}
