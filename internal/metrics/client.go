package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClientMetrics tracks REST calls made to the platform.
type ClientMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	Retries         *prometheus.CounterVec
	RateLimitWait   prometheus.Histogram
	BreakerState    prometheus.Gauge
	BreakerChanges  *prometheus.CounterVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "request_duration_seconds",
			Help:      "Duration of platform API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "requests_total",
			Help:      "Total number of platform API requests.",
		}, []string{"method", "route", "status_code"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "retries_total",
			Help:      "Total number of retried platform API requests.",
		}, []string{"method", "route"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting on the client-side rate limiter.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		BreakerChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "openapi",
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker state transitions by new state.",
		}, []string{"state"}),
	}

	register(reg, m.RequestDuration, m.RequestsTotal, m.Retries, m.RateLimitWait, m.BreakerState, m.BreakerChanges)
	return m
}
