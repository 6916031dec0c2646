package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Check(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	fail := func(ctx context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		required map[string]CheckFunc
		optional map[string]CheckFunc
		want     string
	}{
		{"no checks", nil, nil, StatusHealthy},
		{"all passing", map[string]CheckFunc{"storage": ok}, map[string]CheckFunc{"export": ok}, StatusHealthy},
		{"optional failing", map[string]CheckFunc{"storage": ok}, map[string]CheckFunc{"export": fail}, StatusDegraded},
		{"required failing", map[string]CheckFunc{"storage": fail}, map[string]CheckFunc{"export": fail}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("test")
			for name, fn := range tt.required {
				h.AddCheck(name, fn)
			}
			for name, fn := range tt.optional {
				h.AddOptionalCheck(name, fn)
			}

			status := h.Check(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Dependencies, len(tt.required)+len(tt.optional))
		})
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	h := NewHealthChecker("test")
	h.AddCheck("storage", func(ctx context.Context) error { return errors.New("unreachable") })

	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "unreachable", status.Dependencies["storage"].Message)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdownManager(t *testing.T) {
	var order []string
	sm := NewShutdownManager(NewNopLogger(), time.Second)
	sm.Register("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	sm.Register("server", func(ctx context.Context) error {
		order = append(order, "server")
		return errors.New("already closed")
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: already closed")
	assert.Equal(t, []string{"server", "store"}, order)
}
