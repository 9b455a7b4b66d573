package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.GrantMutationsTotal.WithLabelValues("document", "shared").Inc()
	metrics.AuditRecordsTotal.Inc()
	metrics.AuditExportsTotal.WithLabelValues("csv").Inc()

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vellum_grant_mutations_total"])
	assert.True(t, names["vellum_audit_records_total"])
	assert.True(t, names["vellum_audit_exports_total"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GrantMutationsTotal.WithLabelValues("document", "shared")))
}

func TestUpdateDBStats(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.UpdateDBStats(sql.DBStats{OpenConnections: 5, Idle: 3, InUse: 2})

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DBConnectionsIdle))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DBConnectionsInUse))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/10/share", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/documents/10/share", "201")))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.AuditRecordsTotal.Inc()

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vellum_audit_records_total 1")
}
