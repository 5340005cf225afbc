// Package metrics provides Prometheus metrics for the registry console
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"model-registry-service/internal/core/tracker"
)

// Metrics holds all Prometheus metrics for the console. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Backend request metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
	BackendRequestsPending prometheus.Gauge

	// Polling metrics
	PollTicksTotal *prometheus.CounterVec

	// Monitoring metrics
	MonitoringTagsDroppedTotal prometheus.Counter

	// HTTP surface metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.BackendRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_console_backend_requests_total",
			Help: "Total number of tracked registry backend requests",
		},
		[]string{"kind", "status"},
	)

	m.BackendRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_console_backend_request_duration_seconds",
			Help:    "Duration of registry backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	m.BackendRequestsPending = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_console_backend_requests_pending",
			Help: "Number of registry backend requests currently in flight",
		},
	)

	m.PollTicksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_console_poll_ticks_total",
			Help: "Polling ticks by page and outcome",
		},
		[]string{"page", "outcome"},
	)

	m.MonitoringTagsDroppedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_console_monitoring_tags_dropped_total",
			Help: "Monitoring tags skipped because their value is not a JSON object",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_console_http_requests_total",
			Help: "Total number of console HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_console_http_request_duration_seconds",
			Help:    "Duration of console HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.SessionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_console_sessions_active",
			Help: "Number of open console sessions",
		},
	)

	return m
}

var _ tracker.Observer = (*Metrics)(nil)

// RequestStarted implements tracker.Observer.
func (m *Metrics) RequestStarted(kind tracker.Kind) {
	if m == nil {
		return
	}
	m.BackendRequestsPending.Inc()
}

// RequestFinished implements tracker.Observer.
func (m *Metrics) RequestFinished(kind tracker.Kind, status tracker.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestsPending.Dec()
	m.BackendRequestsTotal.WithLabelValues(string(kind), string(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *Metrics) PollTick(page, outcome string) {
	if m == nil {
		return
	}
	m.PollTicksTotal.WithLabelValues(page, outcome).Inc()
}

func (m *Metrics) MonitoringTagsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MonitoringTagsDroppedTotal.Add(float64(n))
}

func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}
