package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcome labels recorded by RecordComponentLoad.
const (
	LoadOutcomeLoaded  = "loaded"
	LoadOutcomeSkipped = "skipped"
	LoadOutcomeFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the runtime.
type Metrics struct {
	// HTTP surface metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	RegistryFetches      *prometheus.CounterVec
	RegistryFetchSeconds prometheus.Histogram
	ComponentsRegistered prometheus.Gauge

	// Component load metrics
	ComponentLoads      *prometheus.CounterVec
	LifecycleHookErrors *prometheus.CounterVec

	// Styling metrics
	StylesheetsApplied prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "runtime_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		RegistryFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_registry_fetches_total",
				Help: "Total number of component registry fetches",
			},
			[]string{"status"},
		),
		RegistryFetchSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "runtime_registry_fetch_duration_seconds",
				Help:    "Registry fetch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		ComponentsRegistered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_components_registered",
				Help: "Number of components in the resolved registry",
			},
		),

		ComponentLoads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_component_loads_total",
				Help: "Total number of component load attempts by outcome",
			},
			[]string{"outcome"},
		),
		LifecycleHookErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_lifecycle_hook_errors_total",
				Help: "Total number of component lifecycle hook failures",
			},
			[]string{"phase"},
		),

		StylesheetsApplied: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_stylesheets_applied",
				Help: "Number of stylesheets currently applied",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	go m.trackUptime()
	return m
}

// RecordHTTPRequest records an HTTP request outcome.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRegistryFetch records a registry fetch outcome and duration.
func (m *Metrics) RecordRegistryFetch(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.RegistryFetches.WithLabelValues(status).Inc()
	m.RegistryFetchSeconds.Observe(duration.Seconds())
}

// SetComponentsRegistered updates the resolved registry size gauge.
func (m *Metrics) SetComponentsRegistered(n int) {
	if m == nil {
		return
	}
	m.ComponentsRegistered.Set(float64(n))
}

// RecordComponentLoad records one component load attempt outcome.
func (m *Metrics) RecordComponentLoad(outcome string) {
	if m == nil {
		return
	}
	m.ComponentLoads.WithLabelValues(outcome).Inc()
}

// RecordHookError records a lifecycle hook failure for a phase ("init" or "mount").
func (m *Metrics) RecordHookError(phase string) {
	if m == nil {
		return
	}
	m.LifecycleHookErrors.WithLabelValues(phase).Inc()
}

// SetStylesheetsApplied updates the applied stylesheet gauge.
func (m *Metrics) SetStylesheetsApplied(n int) {
	if m == nil {
		return
	}
	m.StylesheetsApplied.Set(float64(n))
}

func (m *Metrics) trackUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}
