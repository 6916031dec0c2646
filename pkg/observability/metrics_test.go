package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.StorageOperationsTotal)
	assert.NotNil(t, metrics.LoginAttemptsTotal)
	assert.NotNil(t, metrics.LeadsAssignedTotal)

	// registering twice on the same registry must panic
	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordStorageOperation("get", time.Millisecond, nil)
		m.RecordCacheHit("documents")
		m.RecordCacheMiss("documents")
		m.RecordLogin("success")
		m.SetActiveSession(true)
		m.RecordPermissionDenied("finance")
		m.RecordImport(3)
		m.RecordImportFailure("missing_headers")
		m.RecordAssignment("manual", 1)
		m.RecordTransition("completed")
		m.RecordReport("leads", "csv")
	})
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordStorageOperation("put", time.Millisecond, nil)
	m.RecordStorageOperation("put", time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOperationsTotal.WithLabelValues("put", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOperationsTotal.WithLabelValues("put", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageErrorsTotal.WithLabelValues("put")))

	m.RecordLogin("failure")
	m.RecordLogin("failure")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("failure")))

	m.SetActiveSession(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSession))
	m.SetActiveSession(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSession))

	m.RecordImport(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LeadsImportedTotal))

	m.RecordAssignment("round_robin", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LeadsAssignedTotal.WithLabelValues("round_robin")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	handler := HTTPMetricsMiddleware(m, func(r *http.Request) string { return "/api/leads/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "404")))
}

func TestHTTPMetricsMiddleware_NilMetrics(t *testing.T) {
	called := false
	handler := HTTPMetricsMiddleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.RecordLogin("success")

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `crm_login_attempts_total{result="success"} 1`))
}
