package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics tracks session store backend operations.
type StoreMetrics struct {
	OpsTotal         *prometheus.CounterVec
	OpDuration       *prometheus.HistogramVec
	ConnectionErrors prometheus.Counter
}

func NewStoreMetrics(reg prometheus.Registerer, backend string) *StoreMetrics {
	labels := prometheus.Labels{"backend": backend}
	m := &StoreMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "session_store",
			Name:        "operations_total",
			Help:        "Session store operations by operation and status.",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "session_store",
			Name:        "operation_duration_seconds",
			Help:        "Session store operation duration in seconds.",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: labels,
		}, []string{"operation"}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "session_store",
			Name:        "connection_errors_total",
			Help:        "Session store connection errors.",
			ConstLabels: labels,
		}),
	}

	register(reg, m.OpsTotal, m.OpDuration, m.ConnectionErrors)
	return m
}
