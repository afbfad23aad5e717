// Package metrics collects runtime counters for a vio application.
//
// Each Metrics value owns a private Prometheus registry so several
// applications can coexist in one process. The devtools bridge serves the
// registry at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vio"

// Metrics holds the collectors updated by the runtime.
type Metrics struct {
	registry *prometheus.Registry

	renders    *prometheus.CounterVec
	patchOps   *prometheus.CounterVec
	events     *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	navigation *prometheus.CounterVec
	instances  prometheus.Gauge
}

// New creates a Metrics value with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Component renders by component and mode (mount, patch, replace).",
		}, []string{"component", "mode"}),
		patchOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patch_ops_total",
			Help:      "Patch operations applied, by kind.",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events emitted on the bus, by type.",
		}, []string{"type"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Store dispatches by action and result.",
		}, []string{"action", "result"}),
		navigation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigations by result (matched, unmatched).",
		}, []string{"result"}),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mounted_instances",
			Help:      "Currently mounted component instances.",
		}),
	}
	m.registry.MustRegister(m.renders, m.patchOps, m.events, m.dispatches, m.navigation, m.instances)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender counts one render of component in the given mode.
func (m *Metrics) ObserveRender(component, mode string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(component, mode).Inc()
}

// ObservePatchOps adds n operations of the given kind.
func (m *Metrics) ObservePatchOps(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.patchOps.WithLabelValues(kind).Add(float64(n))
}

// ObserveEvent counts one emitted event.
func (m *Metrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

// ObserveDispatch counts one dispatch; err decides the result label.
func (m *Metrics) ObserveDispatch(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.dispatches.WithLabelValues(action, result).Inc()
}

// ObserveNavigation counts one navigation attempt.
func (m *Metrics) ObserveNavigation(matched bool) {
	if m == nil {
		return
	}
	result := "matched"
	if !matched {
		result = "unmatched"
	}
	m.navigation.WithLabelValues(result).Inc()
}

// SetInstances records the number of mounted instances.
func (m *Metrics) SetInstances(n int) {
	if m == nil {
		return
	}
	m.instances.Set(float64(n))
}
