package ports

import (
	"context"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
)

// TransactionRepository persists payment transactions keyed by merch_order_id
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByMerchOrderID(ctx context.Context, merchOrderID string) (*models.Transaction, error)
	UpdateFromProvider(ctx context.Context, update *models.Transaction) error
	List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
}

// RefundRepository persists refund requests keyed by refund_request_no
type RefundRepository interface {
	Create(ctx context.Context, refund *models.Refund) error
	GetByRequestNo(ctx context.Context, refundRequestNo string) (*models.Refund, error)
}

// APILogRepository records outbound gateway calls. Writes are best-effort:
// implementations log failures and return them, but callers never fail an
// operation over a lost log row.
type APILogRepository interface {
	Record(ctx context.Context, entry *models.APICallLog) error
}
