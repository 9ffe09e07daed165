// Package metrics provides Prometheus instrumentation for the roomcast chat
// server. It exposes gauges for connected sessions and hub subscribers and
// counters for published messages, handler failures and rejected commands.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors used by the hub and the transport. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	// Sessions tracks the current number of open WebSocket sessions.
	Sessions prometheus.Gauge

	// Subscribers tracks the current number of hub subscribers.
	Subscribers prometheus.Gauge

	// Published counts messages accepted by the hub, labeled by kind:
	// "chat" or "system".
	Published *prometheus.CounterVec

	// HandlerPanics counts deliveries whose handler panicked.
	HandlerPanics prometheus.Counter

	// Rejected counts inbound commands refused by the transport, labeled by
	// the error code sent back to the client.
	Rejected *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry, so that
// several hubs (and tests) can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomcast_sessions",
			Help: "Current number of open chat sessions",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomcast_hub_subscribers",
			Help: "Current number of handlers subscribed to the hub",
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomcast_messages_published_total",
			Help: "Total number of messages published to the hub",
		}, []string{"kind"}),
		HandlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomcast_handler_panics_total",
			Help: "Total number of deliveries whose handler panicked",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomcast_commands_rejected_total",
			Help: "Total number of inbound commands rejected",
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.Sessions,
		m.Subscribers,
		m.Published,
		m.HandlerPanics,
		m.Rejected,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns the Prometheus metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionOpened counts a newly registered WebSocket session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.Sessions.Inc()
	}
}

// SessionClosed counts a session leaving the server.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.Sessions.Dec()
	}
}

// SetSubscribers records the hub's subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.Subscribers.Set(float64(n))
	}
}

// MessagePublished counts one published message of the given kind.
func (m *Metrics) MessagePublished(kind string) {
	if m != nil {
		m.Published.WithLabelValues(kind).Inc()
	}
}

// HandlerPanicked counts a recovered handler panic.
func (m *Metrics) HandlerPanicked() {
	if m != nil {
		m.HandlerPanics.Inc()
	}
}

// CommandRejected counts an inbound command refused with the given code.
func (m *Metrics) CommandRejected(code string) {
	if m != nil {
		m.Rejected.WithLabelValues(code).Inc()
	}
}
