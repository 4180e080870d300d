package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// TransactionRepository implements ports.TransactionRepository on pgx
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, merch_order_id, prepay_id, payment_order_id, trans_id, title,
	amount, currency, status, trade_status, customer_phone, raw_notify_payload,
	created_at, completed_at`

// Create inserts a new transaction row
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (
			merch_order_id, prepay_id, payment_order_id, trans_id, title,
			amount, currency, status, trade_status, customer_phone, raw_notify_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		tx.MerchOrderID, tx.PrepayID, tx.PaymentOrderID, tx.TransID, tx.Title,
		tx.Amount, tx.Currency, string(tx.Status), tx.TradeStatus, tx.CustomerPhone, tx.RawNotifyPayload,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// GetByMerchOrderID loads a transaction by its merchant order id
func (r *TransactionRepository) GetByMerchOrderID(ctx context.Context, merchOrderID string) (*models.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE merch_order_id = $1`,
		merchOrderID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", merchOrderID)
		}
		return nil, fmt.Errorf("get transaction by merch_order_id: %w", err)
	}
	return tx, nil
}

// UpdateFromProvider applies provider-reconciled fields to an existing
// transaction. Updates are unconditional: the latest provider word wins,
// even over a terminal status.
func (r *TransactionRepository) UpdateFromProvider(ctx context.Context, update *models.Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions SET
			payment_order_id   = COALESCE(NULLIF($2, ''), payment_order_id),
			trans_id           = COALESCE(NULLIF($3, ''), trans_id),
			status             = $4,
			trade_status       = COALESCE(NULLIF($5, ''), trade_status),
			raw_notify_payload = COALESCE($6, raw_notify_payload),
			completed_at       = COALESCE($7, completed_at)
		WHERE merch_order_id = $1`,
		update.MerchOrderID, update.PaymentOrderID, update.TransID,
		string(update.Status), update.TradeStatus, update.RawNotifyPayload, update.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction", update.MerchOrderID)
	}
	return nil
}

// List returns a page of transactions, newest first, plus the total count
func (r *TransactionRepository) List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var status string
	err := row.Scan(
		&tx.ID, &tx.MerchOrderID, &tx.PrepayID, &tx.PaymentOrderID, &tx.TransID, &tx.Title,
		&tx.Amount, &tx.Currency, &status, &tx.TradeStatus, &tx.CustomerPhone, &tx.RawNotifyPayload,
		&tx.CreatedAt, &tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Status = models.TransactionStatus(status)
	return &tx, nil
}
