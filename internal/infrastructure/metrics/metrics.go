// Package metrics exposes Prometheus collectors for the HTTP API,
// application admission and the event bus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/messaging"
)

const namespace = "scholarship_hub"

// Admission outcomes recorded by ObserveAdmission.
const (
	AdmissionAccepted         = "accepted"
	AdmissionCapacityExceeded = "capacity_exceeded"
	AdmissionNotOpen          = "not_open"
	AdmissionDeadlinePassed   = "deadline_passed"
	AdmissionAlreadyApplied   = "already_applied"
	AdmissionRejected         = "rejected"
	AdmissionError            = "error"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	admissions    *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	slotsReleased prometheus.Counter
	eventHandled  *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
}

var _ messaging.HandlerObserver = (*Metrics)(nil)

// New creates and registers every collector. withRuntime adds the Go and
// process collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}, []string{"method", "route"}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "admissions_total",
			Help:      "Application submissions by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Lifecycle transitions by aggregate and target status.",
		}, []string{"aggregate", "to"}),
		slotsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scholarships",
			Name:      "slots_released_total",
			Help:      "Slots returned by withdrawn, rejected or cancelled applications.",
		}),
		eventHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Domain event handler invocations.",
		}, []string{"event_type", "success"}),
		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handler_duration_seconds",
			Help:      "Duration of domain event handlers.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"event_type"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.admissions,
		m.transitions,
		m.slotsReleased,
		m.eventHandled,
		m.eventDuration,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP
// ─────────────────────────────────────────────────────────────────────────────

// RequestStarted increments the in-flight gauge and returns its decrement.
func (m *Metrics) RequestStarted() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTP records one finished request. route is the router pattern,
// never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain
// ─────────────────────────────────────────────────────────────────────────────

// ObserveAdmission counts one submission attempt.
func (m *Metrics) ObserveAdmission(outcome string) {
	m.admissions.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts a lifecycle transition.
func (m *Metrics) ObserveTransition(aggregate, to string) {
	m.transitions.WithLabelValues(aggregate, to).Inc()
}

// ObserveSlotReleased counts a slot handed back to a scholarship.
func (m *Metrics) ObserveSlotReleased() {
	m.slotsReleased.Inc()
}

// ObserveEventHandler implements messaging.HandlerObserver.
func (m *Metrics) ObserveEventHandler(eventType string, d time.Duration, err error) {
	m.eventHandled.WithLabelValues(eventType, strconv.FormatBool(err == nil)).Inc()
	m.eventDuration.WithLabelValues(eventType).Observe(d.Seconds())
}
