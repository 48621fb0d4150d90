// Package metrics defines the service's Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Generation metrics
	AttemptsTotal        *prometheus.CounterVec
	AttemptScore         *prometheus.HistogramVec
	ProviderCallDuration *prometheus.HistogramVec
	GatesTerminalTotal   *prometheus.CounterVec
	AdmissionWait        prometheus.Histogram

	// Composition metrics
	CompositionsTotal  *prometheus.CounterVec
	DroppedAssetsTotal prometheus.Counter
}

// New creates a new Metrics instance registered on reg. A nil reg uses the
// default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "reelforge"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Total number of generation attempts",
			},
			[]string{"kind", "provider", "outcome"},
		),
		AttemptScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "score",
				Help:      "Content scores of generated assets",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 95, 100},
			},
			[]string{"kind"},
		),
		ProviderCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "attempt_duration_seconds",
				Help:      "Wall time of one attempt, provider call plus scoring",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"provider"},
		),
		GatesTerminalTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "gates_terminal_total",
				Help:      "Scene gates by terminal status",
			},
			[]string{"status"},
		),
		AdmissionWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "admission_wait_seconds",
				Help:      "Time spent waiting for a provider call slot",
				Buckets:   []float64{.01, .1, .5, 1, 5, 15, 60, 300},
			},
		),

		CompositionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "compositions_total",
				Help:      "Render spec compositions by outcome",
			},
			[]string{"outcome"},
		),
		DroppedAssetsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "dropped_assets_total",
				Help:      "Assets dropped from render specs as unresolvable",
			},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAttempt records a finished generation attempt.
func (m *Metrics) RecordAttempt(kind script.MediaKind, attempt generation.Attempt) {
	provider := attempt.ProviderID
	if provider == "" {
		provider = "none"
	}
	m.AttemptsTotal.WithLabelValues(string(kind), provider, string(attempt.Outcome)).Inc()
	if attempt.HasScore() {
		m.AttemptScore.WithLabelValues(string(kind)).Observe(attempt.ScoreValue())
	}
	if attempt.FinishedAt != nil && !attempt.StartedAt.IsZero() {
		m.ProviderCallDuration.WithLabelValues(provider).Observe(attempt.FinishedAt.Sub(attempt.StartedAt).Seconds())
	}
}

// RecordTerminal records a gate reaching a terminal status.
func (m *Metrics) RecordTerminal(status generation.Status) {
	m.GatesTerminalTotal.WithLabelValues(string(status)).Inc()
}

// RecordAdmissionWait records time spent waiting for admission.
func (m *Metrics) RecordAdmissionWait(seconds float64) {
	m.AdmissionWait.Observe(seconds)
}

// RecordComposition records a composition outcome and how many assets it dropped.
func (m *Metrics) RecordComposition(outcome string, droppedAssets int) {
	m.CompositionsTotal.WithLabelValues(outcome).Inc()
	if droppedAssets > 0 {
		m.DroppedAssetsTotal.Add(float64(droppedAssets))
	}
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Compile-time interface check
var _ outbound.GenerationMetricsPort = (*Metrics)(nil)
