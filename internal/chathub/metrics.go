package chathub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the hub's Prometheus collectors.
type Metrics struct {
	Ops           *prometheus.CounterVec
	Broadcasts    *prometheus.CounterVec
	Connections   prometheus.Gauge
	DroppedFrames prometheus.Counter
}

// NewMetrics registers the hub collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethos",
			Subsystem: "chat",
			Name:      "ops_total",
			Help:      "Inbound chat operations by event and result code.",
		}, []string{"event", "result"}),
		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethos",
			Subsystem: "chat",
			Name:      "broadcasts_total",
			Help:      "Room broadcasts by outbound event.",
		}, []string{"event"}),
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "ethos",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Currently registered websocket connections.",
		}),
		DroppedFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ethos",
			Subsystem: "chat",
			Name:      "dropped_frames_total",
			Help:      "Frames not delivered because a client was closed or too slow.",
		}),
	}
}
