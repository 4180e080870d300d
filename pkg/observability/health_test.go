package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_NoDatabaseConfigured(t *testing.T) {
	checker := NewHealthChecker(nil)

	report := checker.Check(context.Background())
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "not configured", report.Checks["database"])
	assert.False(t, report.Timestamp.IsZero())
}

func TestHealthHandler_ServesJSON(t *testing.T) {
	checker := NewHealthChecker(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	checker.HealthHandler()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "healthy", report.Status)
}
