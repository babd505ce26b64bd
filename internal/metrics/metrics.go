// Package metrics holds the prometheus collectors for the cart store, its
// persistence pipeline and the sandbox server. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cart"

// Hydration outcomes.
const (
	HydrateLoaded = "loaded"
	HydrateEmpty  = "empty"
	HydrateFailed = "failed"
)

// Metrics groups every collector exported by the module.
type Metrics struct {
	Operations      *prometheus.CounterVec
	PersistWrites   *prometheus.CounterVec
	PersistRetries  prometheus.Counter
	Hydrations      *prometheus.CounterVec
	Lines           prometheus.Gauge
	Units           prometheus.Gauge
	SandboxRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Cart operations by kind and whether they changed the cart.",
		}, []string{"op", "result"}),
		PersistWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Completed cart writes by outcome.",
		}, []string{"result"}),
		PersistRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_retries_total",
			Help:      "Cart write attempts beyond the first.",
		}),
		Hydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydrations_total",
			Help:      "Startup loads of the persisted cart by outcome.",
		}, []string{"result"}),
		Lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "line_items",
			Help:      "Distinct line items currently in the cart.",
		}),
		Units: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units",
			Help:      "Sum of quantities currently in the cart.",
		}),
		SandboxRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "requests_total",
			Help:      "Sandbox key-value API requests by route and status code.",
		}, []string{"route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Operations,
			m.PersistWrites,
			m.PersistRetries,
			m.Hydrations,
			m.Lines,
			m.Units,
			m.SandboxRequests,
		)
	}
	return m
}

// ObserveOp counts one cart operation.
func (m *Metrics) ObserveOp(op string, changed bool) {
	if m == nil {
		return
	}
	result := "noop"
	if changed {
		result = "changed"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// ObserveWrite counts a finished write; err == nil means it landed.
func (m *Metrics) ObserveWrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PersistWrites.WithLabelValues(result).Inc()
}

// ObserveRetry counts one write retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.PersistRetries.Inc()
}

// ObserveHydration counts a hydration outcome.
func (m *Metrics) ObserveHydration(result string) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(result).Inc()
}

// SetCartSize records the current cart shape.
func (m *Metrics) SetCartSize(lines, units int) {
	if m == nil {
		return
	}
	m.Lines.Set(float64(lines))
	m.Units.Set(float64(units))
}

// ObserveRequest counts one sandbox request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.SandboxRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
