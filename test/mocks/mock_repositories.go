package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// InMemoryTransactionRepository is a map-backed TransactionRepository for
// tests, keyed by merch_order_id
type InMemoryTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]*models.Transaction
	nextID       int64

	// FailCreate forces Create to error, for best-effort persistence tests
	FailCreate bool
}

// NewInMemoryTransactionRepository creates an empty in-memory repository
func NewInMemoryTransactionRepository() *InMemoryTransactionRepository {
	return &InMemoryTransactionRepository{
		transactions: make(map[string]*models.Transaction),
	}
}

func (r *InMemoryTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate {
		return apperrors.NewAPIError("", "simulated storage failure", "", 0)
	}
	r.nextID++
	tx.ID = r.nextID
	tx.CreatedAt = time.Now().UTC()
	clone := *tx
	r.transactions[tx.MerchOrderID] = &clone
	return nil
}

func (r *InMemoryTransactionRepository) GetByMerchOrderID(ctx context.Context, merchOrderID string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[merchOrderID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction", merchOrderID)
	}
	clone := *tx
	return &clone, nil
}

func (r *InMemoryTransactionRepository) UpdateFromProvider(ctx context.Context, update *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[update.MerchOrderID]
	if !ok {
		return apperrors.NewNotFoundError("transaction", update.MerchOrderID)
	}
	if update.PaymentOrderID != "" {
		tx.PaymentOrderID = update.PaymentOrderID
	}
	if update.TransID != "" {
		tx.TransID = update.TransID
	}
	tx.Status = update.Status
	if update.TradeStatus != "" {
		tx.TradeStatus = update.TradeStatus
	}
	if update.RawNotifyPayload != nil {
		tx.RawNotifyPayload = update.RawNotifyPayload
	}
	if update.CompletedAt != nil {
		tx.CompletedAt = update.CompletedAt
	}
	return nil
}

func (r *InMemoryTransactionRepository) List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Transaction, 0, len(r.transactions))
	for _, tx := range r.transactions {
		clone := *tx
		all = append(all, &clone)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// InMemoryRefundRepository is a map-backed RefundRepository for tests
type InMemoryRefundRepository struct {
	mu      sync.Mutex
	refunds map[string]*models.Refund
	nextID  int64
}

// NewInMemoryRefundRepository creates an empty in-memory refund repository
func NewInMemoryRefundRepository() *InMemoryRefundRepository {
	return &InMemoryRefundRepository{refunds: make(map[string]*models.Refund)}
}

func (r *InMemoryRefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	refund.ID = r.nextID
	refund.CreatedAt = time.Now().UTC()
	clone := *refund
	r.refunds[refund.RefundRequestNo] = &clone
	return nil
}

func (r *InMemoryRefundRepository) GetByRequestNo(ctx context.Context, refundRequestNo string) (*models.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund, ok := r.refunds[refundRequestNo]
	if !ok {
		return nil, apperrors.NewNotFoundError("refund", refundRequestNo)
	}
	clone := *refund
	return &clone, nil
}

// InMemoryAPILogRepository captures outbound-call log records for tests
type InMemoryAPILogRepository struct {
	mu      sync.Mutex
	Entries []*models.APICallLog
}

// NewInMemoryAPILogRepository creates an empty API log recorder
func NewInMemoryAPILogRepository() *InMemoryAPILogRepository {
	return &InMemoryAPILogRepository{}
}

func (r *InMemoryAPILogRepository) Record(ctx context.Context, entry *models.APICallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, entry)
	return nil
}

// Count returns the number of recorded calls
func (r *InMemoryAPILogRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Entries)
}
