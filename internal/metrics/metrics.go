// Package metrics exposes Prometheus collectors for alerts and resolution sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
)

const namespace = "opschief"

// Metrics holds the collectors. The zero value is not usable; use New.
type Metrics struct {
	registry *prometheus.Registry

	activeAlerts   *prometheus.GaugeVec
	sessionsOpened *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	forceClosed    *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestDur     *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.activeAlerts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_alerts",
		Help:      "Alerts in the latest projection by severity",
	}, []string{"severity"})
	m.sessionsOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_opened_total",
		Help:      "Resolution sessions opened by rule",
	}, []string{"rule"})
	m.resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Successful resolutions by rule and outcome",
	}, []string{"rule", "outcome"})
	m.forceClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_force_closed_total",
		Help:      "Sessions closed because their event disappeared",
	}, []string{"rule"})
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
	m.requestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.registry.MustRegister(
		m.activeAlerts, m.sessionsOpened, m.resolutions,
		m.forceClosed, m.requests, m.requestDur,
		prometheus.NewGoCollector(),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProjection records the size of the latest projection.
func (m *Metrics) ObserveProjection(p alerts.Projection) {
	m.activeAlerts.WithLabelValues(string(domain.SeverityCritical)).Set(float64(len(p.Critical)))
	m.activeAlerts.WithLabelValues(string(domain.SeverityWarning)).Set(float64(len(p.Warning)))
}

// SessionOpened implements service.Observer.
func (m *Metrics) SessionOpened(rule domain.RuleID) {
	m.sessionsOpened.WithLabelValues(string(rule)).Inc()
}

// ResolutionSubmitted implements service.Observer.
func (m *Metrics) ResolutionSubmitted(rule domain.RuleID, outcome domain.OutcomeKind) {
	m.resolutions.WithLabelValues(string(rule), string(outcome)).Inc()
}

// SessionForceClosed implements service.Observer.
func (m *Metrics) SessionForceClosed(rule domain.RuleID) {
	m.forceClosed.WithLabelValues(string(rule)).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDur.WithLabelValues(route).Observe(elapsed.Seconds())
}
