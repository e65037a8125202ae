// Package metrics holds the Prometheus collectors for the access-control
// core: decisions, device sync attempts, and live-stream subscribers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// AccessDecisions counts scan evaluations by outcome (granted/denied).
	AccessDecisions *prometheus.CounterVec

	// SyncAttempts counts per-channel sync outcomes.
	// channel: transport|queue, result: ok|failed.
	SyncAttempts *prometheus.CounterVec

	// StreamSubscribers is the number of connected websocket clients.
	StreamSubscribers prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymgate_access_decisions_total",
			Help: "Access decisions by outcome.",
		}, []string{"outcome"}),
		SyncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymgate_device_sync_attempts_total",
			Help: "Device sync attempts by channel and result.",
		}, []string{"channel", "result"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gymgate_stream_subscribers",
			Help: "Connected live-stream websocket clients.",
		}),
	}

	m.registry.MustRegister(
		m.AccessDecisions,
		m.SyncAttempts,
		m.StreamSubscribers,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records one evaluated scan.
func (m *Metrics) ObserveDecision(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "granted"
	}
	m.AccessDecisions.WithLabelValues(outcome).Inc()
}

// ObserveSync records one channel attempt outcome.
func (m *Metrics) ObserveSync(channel string, ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	m.SyncAttempts.WithLabelValues(channel, result).Inc()
}
