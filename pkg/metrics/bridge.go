package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bridge holds the collectors of a devtools bridge.
type Bridge struct {
	registry *prometheus.Registry

	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	connections prometheus.Counter
	connected   prometheus.Gauge
}

// NewBridge creates bridge collectors with their own registry.
func NewBridge() *Bridge {
	b := &Bridge{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "calls_total",
			Help:      "Bridge calls by method and result (ok, error, timeout).",
		}, []string{"method", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "call_duration_seconds",
			Help:      "Round-trip time of bridge calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"method"}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "connections_total",
			Help:      "App connections accepted.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "connected",
			Help:      "1 while an app is connected.",
		}),
	}
	b.registry.MustRegister(b.calls, b.latency, b.connections, b.connected)
	return b
}

// Registry returns the private registry.
func (b *Bridge) Registry() *prometheus.Registry {
	return b.registry
}

// Handler returns an HTTP handler exposing the registry.
func (b *Bridge) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one finished call.
func (b *Bridge) ObserveCall(method, result string, d time.Duration) {
	if b == nil {
		return
	}
	b.calls.WithLabelValues(method, result).Inc()
	b.latency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveConnection counts an accepted app connection.
func (b *Bridge) ObserveConnection() {
	if b == nil {
		return
	}
	b.connections.Inc()
}

// SetConnected records whether an app is connected.
func (b *Bridge) SetConnected(connected bool) {
	if b == nil {
		return
	}
	if connected {
		b.connected.Set(1)
	} else {
		b.connected.Set(0)
	}
}
