package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics tracks event decoding and handler execution.
type DispatchMetrics struct {
	Events          *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	HandlerErrors   *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Dispatched events by name and outcome (handled/skipped/unhandled/decode_error).",
		}, []string{"event", "outcome"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time by event name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_errors_total",
			Help:      "Handler failures by event name and kind (error/panic).",
		}, []string{"event", "kind"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Events waiting for the dispatcher.",
		}),
	}

	register(reg, m.Events, m.HandlerDuration, m.HandlerErrors, m.QueueDepth)
	return m
}
