package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Record* helpers are safe on a nil receiver
// so components can run without instrumentation.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Access metrics
	LoginAttemptsTotal    *prometheus.CounterVec
	PermissionDeniedTotal *prometheus.CounterVec
	ActiveSession         prometheus.Gauge

	// Business metrics
	LeadsImportedTotal   prometheus.Counter
	ImportFailuresTotal  *prometheus.CounterVec
	LeadsAssignedTotal   *prometheus.CounterVec
	LeadTransitionsTotal *prometheus.CounterVec
	ReportsExportedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_storage_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"operation", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_storage_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_storage_errors_total",
				Help: "Total number of document store errors",
			},
			[]string{"operation"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		PermissionDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_permission_denied_total",
				Help: "Total number of section access denials",
			},
			[]string{"section"},
		),
		ActiveSession: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_active_session",
				Help: "1 when a user is signed in, 0 otherwise",
			},
		),
		LeadsImportedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crm_leads_imported_total",
				Help: "Total number of leads created by CSV import",
			},
		),
		ImportFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_import_failures_total",
				Help: "Total number of rejected CSV imports by reason",
			},
			[]string{"reason"},
		),
		LeadsAssignedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_leads_assigned_total",
				Help: "Total number of lead assignments by mode",
			},
			[]string{"mode"},
		),
		LeadTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_transitions_total",
				Help: "Total number of lead status transitions by target status",
			},
			[]string{"status"},
		),
		ReportsExportedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_reports_exported_total",
				Help: "Total number of exported reports by kind and format",
			},
			[]string{"kind", "format"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.LoginAttemptsTotal,
		m.PermissionDeniedTotal,
		m.ActiveSession,
		m.LeadsImportedTotal,
		m.ImportFailuresTotal,
		m.LeadsAssignedTotal,
		m.LeadTransitionsTotal,
		m.ReportsExportedTotal,
	)

	return m
}

// RecordStorageOperation records one document store operation
func (m *Metrics) RecordStorageOperation(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		m.StorageErrorsTotal.WithLabelValues(operation).Inc()
	}
	m.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordLogin records a login attempt. result is "success" or "failure".
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// SetActiveSession flips the active session gauge
func (m *Metrics) SetActiveSession(active bool) {
	if m == nil {
		return
	}
	if active {
		m.ActiveSession.Set(1)
	} else {
		m.ActiveSession.Set(0)
	}
}

// RecordPermissionDenied records a denied section access
func (m *Metrics) RecordPermissionDenied(section string) {
	if m == nil {
		return
	}
	m.PermissionDeniedTotal.WithLabelValues(section).Inc()
}

// RecordImport records a successful import of n leads
func (m *Metrics) RecordImport(n int) {
	if m == nil {
		return
	}
	m.LeadsImportedTotal.Add(float64(n))
}

// RecordImportFailure records a rejected import
func (m *Metrics) RecordImportFailure(reason string) {
	if m == nil {
		return
	}
	m.ImportFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordAssignment records n leads assigned in mode ("round_robin" or "manual")
func (m *Metrics) RecordAssignment(mode string, n int) {
	if m == nil {
		return
	}
	m.LeadsAssignedTotal.WithLabelValues(mode).Add(float64(n))
}

// RecordTransition records a lead moving to status
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.LeadTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordReport records an exported report
func (m *Metrics) RecordReport(kind, format string) {
	if m == nil {
		return
	}
	m.ReportsExportedTotal.WithLabelValues(kind, format).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware creates middleware that records HTTP metrics.
// pathLabel maps a request to a low-cardinality label such as the route template.
func HTTPMetricsMiddleware(metrics *Metrics, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if pathLabel != nil {
				path = pathLabel(r)
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
