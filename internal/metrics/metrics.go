// Package metrics holds the Prometheus collectors exported on /metrics.
// A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all CoinScope metrics on a dedicated prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	AnalysisDuration prometheus.Histogram
	Analyses         *prometheus.CounterVec
	ImportedRows     *prometheus.CounterVec
	JobRuns          *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates and registers every collector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coinscope_analysis_duration_seconds",
			Help:    "Time spent analyzing one asset series",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinscope_analyses_total",
			Help: "Assets analyzed, by whether price history was available",
		}, []string{"has_data"}),
		ImportedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinscope_imported_rows_total",
			Help: "Price rows inserted by the bulk importer",
		}, []string{"grain"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinscope_job_runs_total",
			Help: "Background job runs by job and status",
		}, []string{"job", "status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinscope_http_requests_total",
			Help: "Dashboard API requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinscope_http_request_duration_seconds",
			Help:    "Dashboard API latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.AnalysisDuration,
		r.Analyses,
		r.ImportedRows,
		r.JobRuns,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveAnalysis(d time.Duration, hasData bool) {
	if r == nil {
		return
	}
	r.AnalysisDuration.Observe(d.Seconds())
	label := "false"
	if hasData {
		label = "true"
	}
	r.Analyses.WithLabelValues(label).Inc()
}

// CountNoData counts an asset skipped for lack of price history. No
// duration is observed since nothing was analyzed.
func (r *Registry) CountNoData() {
	if r == nil {
		return
	}
	r.Analyses.WithLabelValues("false").Inc()
}

func (r *Registry) AddImportedRows(grain string, n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.ImportedRows.WithLabelValues(grain).Add(float64(n))
}

func (r *Registry) JobRun(job, status string) {
	if r == nil {
		return
	}
	r.JobRuns.WithLabelValues(job, status).Inc()
}

func (r *Registry) ObserveRequest(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
