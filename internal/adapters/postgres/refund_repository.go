package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// RefundRepository implements ports.RefundRepository on pgx
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository creates a new refund repository
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// Create inserts a new refund row. The parent transaction row is locked
// first so concurrent refund submissions for the same order serialize at
// the database, not just behind the in-process order lock.
func (r *RefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	return WithTransaction(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var parentID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM transactions WHERE id = $1 FOR UPDATE`,
			refund.TransactionID,
		).Scan(&parentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFoundError("transaction", strconv.FormatInt(refund.TransactionID, 10))
			}
			return fmt.Errorf("lock parent transaction: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO refunds (
				refund_request_no, transaction_id, merch_order_id, amount, reason, status, raw_response
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at`,
			refund.RefundRequestNo, refund.TransactionID, refund.MerchOrderID,
			refund.Amount, refund.Reason, string(refund.Status), refund.RawResponse,
		).Scan(&refund.ID, &refund.CreatedAt)
		if err != nil {
			return fmt.Errorf("create refund: %w", err)
		}
		return nil
	})
}

// GetByRequestNo loads a refund by its request number
func (r *RefundRepository) GetByRequestNo(ctx context.Context, refundRequestNo string) (*models.Refund, error) {
	var refund models.Refund
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, refund_request_no, transaction_id, merch_order_id, amount, reason, status, raw_response, created_at
		FROM refunds WHERE refund_request_no = $1`,
		refundRequestNo,
	).Scan(
		&refund.ID, &refund.RefundRequestNo, &refund.TransactionID, &refund.MerchOrderID,
		&refund.Amount, &refund.Reason, &status, &refund.RawResponse, &refund.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("refund", refundRequestNo)
		}
		return nil, fmt.Errorf("get refund by request no: %w", err)
	}
	refund.Status = models.TransactionStatus(status)
	return &refund, nil
}
