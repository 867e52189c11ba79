package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayMetrics tracks the streaming connection to the platform.
type GatewayMetrics struct {
	Connected        prometheus.Gauge
	Connects         *prometheus.CounterVec
	Disconnects      *prometheus.CounterVec
	FramesReceived   *prometheus.CounterVec
	HeartbeatLatency prometheus.Histogram
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "connected",
			Help:      "1 while a gateway session is established.",
		}),
		Connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "sessions_total",
			Help:      "Gateway sessions started, by mode (identify/resume).",
		}, []string{"mode"}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "disconnects_total",
			Help:      "Gateway disconnects by reason.",
		}, []string{"reason"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "frames_received_total",
			Help:      "Gateway frames received by opcode.",
		}, []string{"op"}),
		HeartbeatLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "heartbeat_latency_seconds",
			Help:      "Time between a heartbeat and its acknowledgement.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	register(reg, m.Connected, m.Connects, m.Disconnects, m.FramesReceived, m.HeartbeatLatency)
	return m
}
