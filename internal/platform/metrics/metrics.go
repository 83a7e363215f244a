// Package metrics defines the Prometheus collectors exported by the portal.
//
// Collectors are registered on a private registry so that multiple
// instances (one per test, for example) never collide on the global
// default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Metrics groups the portal collectors.
type Metrics struct {
	registry *prometheus.Registry

	// NavigationTotal counts view router resolutions.
	// Labels: page, outcome (allowed|redirected|unknown)
	NavigationTotal *prometheus.CounterVec

	// AuthzDecisions counts role authority decisions.
	// Labels: operation (assign|edit|delete|create|change_role), reason
	AuthzDecisions *prometheus.CounterVec

	// LoginAttempts counts login outcomes.
	// Labels: outcome (success|invalid_credentials|inactive|invalid_role|denied|rate_limited|error)
	LoginAttempts *prometheus.CounterVec

	// ActiveSessions tracks live portal sessions.
	ActiveSessions prometheus.Gauge

	// HTTPRequestDuration measures request latency.
	// Labels: method, route, status_code
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		NavigationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_total",
			Help:      "View router resolutions by page and outcome.",
		}, []string{"page", "outcome"}),
		AuthzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Role authority decisions by operation and reason code.",
		}, []string{"operation", "reason"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Live portal sessions.",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route", "status_code"}),
	}
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NavigationResolved records one router resolution. Nil receivers are no-ops
// so packages can run without metrics in tests.
func (m *Metrics) NavigationResolved(page, outcome string) {
	if m == nil {
		return
	}
	m.NavigationTotal.WithLabelValues(page, outcome).Inc()
}

// AuthzDecided records one authz decision.
func (m *Metrics) AuthzDecided(operation, reason string) {
	if m == nil {
		return
	}
	m.AuthzDecisions.WithLabelValues(operation, reason).Inc()
}

// LoginAttempted records a login outcome.
func (m *Metrics) LoginAttempted(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// SessionsChanged adjusts the active session gauge by delta.
func (m *Metrics) SessionsChanged(delta int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(float64(delta))
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
