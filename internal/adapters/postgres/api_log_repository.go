package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
)

// APILogRepository implements ports.APILogRepository on pgx
type APILogRepository struct {
	pool *pgxpool.Pool
}

// NewAPILogRepository creates a new API call log repository
func NewAPILogRepository(pool *pgxpool.Pool) *APILogRepository {
	return &APILogRepository{pool: pool}
}

// Record inserts one outbound-call log row. Durations are stored in
// milliseconds.
func (r *APILogRepository) Record(ctx context.Context, entry *models.APICallLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_logs (endpoint, method, request_body, response_body, status_code, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Endpoint, entry.Method, entry.RequestBody, entry.ResponseBody,
		entry.StatusCode, entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record api log: %w", err)
	}
	return nil
}
