package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	fetchFailures    *prometheus.CounterVec
	llmCalls         *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	watchlistAssets  prometheus.Gauge
	collectedAssets  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Pipeline metrics
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carteira_runs_total",
			Help: "Total number of report pipeline runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "carteira_run_duration_seconds",
			Help:    "Report pipeline run duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
	r.fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carteira_fetch_failures_total",
			Help: "Total number of per-asset market data fetch failures",
		},
		[]string{"kind"},
	)
	r.llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carteira_llm_calls_total",
			Help: "Total number of LLM calls by pipeline stage",
		},
		[]string{"stage", "status"},
	)
	r.deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carteira_deliveries_total",
			Help: "Total number of report deliveries per channel",
		},
		[]string{"channel", "status"},
	)
	r.watchlistAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carteira_watchlist_assets",
			Help: "Number of assets in the configured watchlist",
		},
	)
	r.collectedAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carteira_collected_assets",
			Help: "Number of assets collected in the latest run",
		},
	)

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.fetchFailures)
	reg.MustRegister(r.llmCalls)
	reg.MustRegister(r.deliveries)
	reg.MustRegister(r.watchlistAssets)
	reg.MustRegister(r.collectedAssets)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRun records a completed pipeline run.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// RecordFetchFailure records a per-asset fetch failure by kind
// (snapshot, fundamentals, news, earnings, correlation, dividends).
func (r *Registry) RecordFetchFailure(kind string) {
	r.fetchFailures.WithLabelValues(kind).Inc()
}

// RecordLLMCall records an LLM call by stage (sentiment, analysis,
// recommendation, earnings).
func (r *Registry) RecordLLMCall(stage, status string) {
	r.llmCalls.WithLabelValues(stage, status).Inc()
}

// RecordDelivery records a delivery attempt for a channel.
func (r *Registry) RecordDelivery(channel, status string) {
	r.deliveries.WithLabelValues(channel, status).Inc()
}

// SetWatchlistSize sets the configured watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistAssets.Set(float64(size))
}

// SetCollectedAssets sets the number of assets collected in a run.
func (r *Registry) SetCollectedAssets(count int) {
	r.collectedAssets.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
