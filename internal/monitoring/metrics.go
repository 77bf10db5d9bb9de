package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the embed runtime. Each
// collector owns its registry so multiple runtimes (and tests) can
// coexist in one process.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Coordinator metrics
	TasksStarted   *prometheus.CounterVec
	TasksResolved  *prometheus.CounterVec
	TaskJoins      *prometheus.CounterVec
	LateDeliveries *prometheus.CounterVec
	FanoutSize     prometheus.Histogram
	CallbackPanics prometheus.Counter

	// Registry metrics
	EmbedTypes prometheus.Gauge
	DrawsTotal *prometheus.CounterVec
	DrawErrors *prometheus.CounterVec

	// Injection metrics
	ScriptsWritten    prometheus.Counter
	ScriptsLoaded     prometheus.Counter
	ScriptFetchErrors prometheus.Counter

	// Sandbox metrics
	SandboxExecutions prometheus.Counter
	SandboxDuration   prometheus.Histogram

	registry  *prometheus.Registry
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embedos_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		TasksStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_coordinator_tasks_started_total",
				Help: "Number of shared tasks whose work function was invoked",
			},
			[]string{"task"},
		),
		TasksResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_coordinator_tasks_resolved_total",
				Help: "Number of shared tasks that reached the resolved state",
			},
			[]string{"task"},
		),
		TaskJoins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_coordinator_task_joins_total",
				Help: "Callers that joined an already-pending shared task",
			},
			[]string{"task"},
		),
		LateDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_coordinator_late_deliveries_total",
				Help: "Callbacks registered after resolution and served from the stored result",
			},
			[]string{"task"},
		),
		FanoutSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "embedos_coordinator_fanout_size",
				Help:    "Number of callbacks delivered per task resolution",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
		CallbackPanics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "embedos_coordinator_callback_panics_total",
				Help: "Callbacks that panicked during fan-out delivery",
			},
		),

		EmbedTypes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "embedos_registry_embed_types",
				Help: "Number of registered embed types",
			},
		),
		DrawsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_registry_draws_total",
				Help: "Embed draw invocations by type",
			},
			[]string{"type"},
		),
		DrawErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedos_registry_draw_errors_total",
				Help: "Embed draw failures by type",
			},
			[]string{"type"},
		),

		ScriptsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "embedos_inject_scripts_written_total",
				Help: "Script tags written synchronously into bootstrap documents",
			},
		),
		ScriptsLoaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "embedos_inject_scripts_loaded_total",
				Help: "Async script loads completed",
			},
		),
		ScriptFetchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "embedos_inject_script_fetch_errors_total",
				Help: "Async script loads that failed to fetch",
			},
		),

		SandboxExecutions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "embedos_sandbox_executions_total",
				Help: "Scripts evaluated in the frame sandbox",
			},
		),
		SandboxDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "embedos_sandbox_execution_duration_seconds",
				Help:    "Sandbox script evaluation duration",
				Buckets: []float64{.0001, .001, .01, .1, .5, 1, 2},
			},
		),
	}
}

// Handler serves this collector's registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Uptime returns time since the collector was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
