package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus is the serialized health report returned by the probe
// endpoint. Checks maps each dependency to a human-readable verdict.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker probes the gateway's hard dependencies. The fabric API is
// deliberately not probed: its availability is the provider's concern and
// an outage there must not make this service report unhealthy.
type HealthChecker struct {
	dbPool      *pgxpool.Pool
	pingTimeout time.Duration
}

// NewHealthChecker creates a health checker over the transaction store
func NewHealthChecker(dbPool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{
		dbPool:      dbPool,
		pingTimeout: 2 * time.Second,
	}
}

// Check pings each dependency and aggregates the verdicts
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	status := "healthy"

	if h.dbPool == nil {
		checks["database"] = "not configured"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
		defer cancel()

		start := time.Now()
		if err := h.dbPool.Ping(pingCtx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = fmt.Sprintf("healthy (%dms)", time.Since(start).Milliseconds())
		}
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

// HealthHandler serves the health report, 503 when any check failed
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
