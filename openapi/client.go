// Package openapi is the REST client for the platform's bot API.
//
// Every call is authenticated with the bot's Ticket, paced by a client-side
// token bucket, guarded by a circuit breaker and retried according to the
// request's idempotency. Non-2xx responses are returned as *APIError.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/cyan/internal/metrics"
	"github.com/pscheid92/cyan/internal/platform/retry"
	"github.com/pscheid92/cyan/internal/platform/version"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Ticket is the credential pair a bot authenticates with.
type Ticket struct {
	AppID string
	Token string
}

// Authorization returns the value of the Authorization header.
func (t Ticket) Authorization() string {
	return "Bot " + t.AppID + "." + t.Token
}

// Options configures the client. Zero values select the defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration

	RateLimit rate.Limit
	RateBurst int

	MaxAttempts      int
	Backoff          time.Duration
	RateLimitBackoff time.Duration
	MaxBackoff       time.Duration

	// BreakerFailures consecutive transport or 5xx failures open the breaker
	// for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// MemberPageSize is the page size used by ListMembers.
	MemberPageSize int

	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Clock      clockwork.Clock
}

const (
	defaultTimeout          = 10 * time.Second
	defaultRateLimit        = 20
	defaultRateBurst        = 20
	defaultMaxAttempts      = 3
	defaultBackoff          = 200 * time.Millisecond
	defaultRateLimitBackoff = 2 * time.Second
	defaultMaxBackoff       = 10 * time.Second
	defaultBreakerFailures  = 5
	defaultBreakerTimeout   = 30 * time.Second
	defaultMemberPageSize   = 400
)

func (o Options) normalize() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	if o.RateBurst <= 0 {
		o.RateBurst = defaultRateBurst
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultBackoff
	}
	if o.RateLimitBackoff <= 0 {
		o.RateLimitBackoff = defaultRateLimitBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = defaultBreakerFailures
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = defaultBreakerTimeout
	}
	if o.MemberPageSize <= 0 {
		o.MemberPageSize = defaultMemberPageSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

type Client struct {
	baseURL   string
	ticket    Ticket
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	policy    retry.Policy
	pageSize  int
	logger    *slog.Logger
	metrics   *metrics.ClientMetrics
	clock     clockwork.Clock
	userAgent string
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, ticket Ticket, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if ticket.AppID == "" || ticket.Token == "" {
		return nil, errors.New("ticket requires app id and token")
	}

	opts = opts.normalize()
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		ticket:    ticket,
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		pageSize:  opts.MemberPageSize,
		logger:    opts.Logger.With("component", "openapi"),
		metrics:   metrics.NewClientMetrics(opts.Registerer),
		clock:     opts.Clock,
		userAgent: version.UserAgent(),
	}
	c.policy = retry.Policy{
		MaxAttempts:      opts.MaxAttempts,
		InitialBackoff:   opts.Backoff,
		RateLimitBackoff: opts.RateLimitBackoff,
		MaxBackoff:       opts.MaxBackoff,
		Clock:            opts.Clock,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openapi",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
			c.metrics.BreakerState.Set(float64(to))
			c.metrics.BreakerChanges.WithLabelValues(to.String()).Inc()
		},
	})
	return c, nil
}

// BreakerState exposes the circuit breaker state for readiness checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// request describes one API call. route is the path template used for
// metrics and logs, path the concrete path.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	raw, err := c.doRaw(ctx, r)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func decode(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, r request) ([]byte, error) {
	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", r.method, r.route, err)
		}
		payload = b
	}

	policy := c.policy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.metrics.Retries.WithLabelValues(r.method, r.route).Inc()
		c.logger.WarnContext(ctx, "Retrying API request",
			"method", r.method, "route", r.route, "attempt", attempt, "backoff", backoff, "error", err)
	}

	return retry.Do(ctx, policy, classify(r.method), func() ([]byte, error) {
		resp, err := c.attempt(ctx, r, payload)
		if err != nil {
			return nil, err
		}
		return resp.body, nil
	})
}

func (c *Client) attempt(ctx context.Context, r request, payload []byte) (*response, error) {
	waitStart := c.clock.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	c.metrics.RateLimitWait.Observe(c.clock.Since(waitStart).Seconds())

	req, err := c.newRequest(ctx, r, payload)
	if err != nil {
		return nil, err
	}

	start := c.clock.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.send(req)
		if err != nil {
			return nil, err
		}
		if resp.status >= http.StatusInternalServerError {
			return resp, newAPIError(resp)
		}
		return resp, nil
	})
	duration := c.clock.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("platform API unavailable: %w", err)
	}

	status := "error"
	resp, _ := result.(*response)
	if resp != nil {
		status = strconv.Itoa(resp.status)
	}
	c.metrics.RequestDuration.WithLabelValues(r.method, r.route, status).Observe(duration.Seconds())
	c.metrics.RequestsTotal.WithLabelValues(r.method, r.route, status).Inc()
	c.logger.DebugContext(ctx, "API request", "method", r.method, "route", r.route, "status", status, "duration", duration)

	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, r request, payload []byte) (*http.Request, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", r.method, r.route, err)
	}
	req.Header.Set("Authorization", c.ticket.Authorization())
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// classify maps an attempt error to a retry action. Rate limiting is always
// retried; server and transport failures only for idempotent methods.
func classify(method string) retry.Classify {
	return func(err error) retry.Action {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return retry.Stop
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return retry.Stop
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.StatusCode == http.StatusTooManyRequests:
				return retry.After
			case apiErr.StatusCode >= http.StatusInternalServerError && idempotent(method):
				return retry.Retry
			default:
				return retry.Stop
			}
		}

		if idempotent(method) {
			return retry.Retry
		}
		return retry.Stop
	}
}

func path(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
