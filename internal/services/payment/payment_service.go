package payment

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/adapters/telebirr"
	"github.com/addispay/telebirr-gateway/internal/domain/models"
	"github.com/addispay/telebirr-gateway/internal/domain/ports"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
	"github.com/addispay/telebirr-gateway/pkg/observability"
	"github.com/addispay/telebirr-gateway/pkg/timeutil"
)

// NotificationVerifier checks the detached signature on an inbound
// provider payload
type NotificationVerifier interface {
	VerifyPayload(payload map[string]any) bool
}

// Service orchestrates the order lifecycle: create, query, refund and
// asynchronous notification handling. All state converges on the
// transactions store keyed by merch_order_id.
type Service struct {
	gateway      ports.PaymentGateway
	tokens       ports.TokenProvider
	transactions ports.TransactionRepository
	refunds      ports.RefundRepository
	verifier     NotificationVerifier
	logger       *zap.Logger
	locks        *orderLocks
}

// NewService creates the payment service
func NewService(
	gateway ports.PaymentGateway,
	tokens ports.TokenProvider,
	transactions ports.TransactionRepository,
	refunds ports.RefundRepository,
	verifier NotificationVerifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:      gateway,
		tokens:       tokens,
		transactions: transactions,
		refunds:      refunds,
		verifier:     verifier,
		logger:       logger,
		locks:        newOrderLocks(),
	}
}

// CreateOrderOptions carries the optional merchant-supplied extras of an
// order creation
type CreateOrderOptions struct {
	CallbackInfo  string
	CustomerPhone string
}

// CreateOrderResult is the outcome of a successful order creation
type CreateOrderResult struct {
	MerchOrderID string
	PrepayID     string
	CheckoutURL  string
	RawResponse  map[string]any
}

// CreateOrder validates input, acquires a token, submits a signed
// pre-order and persists a PENDING transaction. Persistence is
// best-effort: the provider already accepted the order, so a failed
// local write is logged, not surfaced.
func (s *Service) CreateOrder(ctx context.Context, title string, amount decimal.Decimal, opts CreateOrderOptions) (*CreateOrderResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "must be greater than zero")
	}

	token, err := s.tokens.Token(ctx, false)
	if err != nil {
		observability.RecordOrder("auth_failed")
		return nil, err
	}

	order := ports.PreOrder{
		MerchOrderID:  telebirr.NewMerchOrderID(),
		Title:         telebirr.SanitizeTitle(title),
		Amount:        amount,
		CallbackInfo:  opts.CallbackInfo,
		CustomerPhone: telebirr.SanitizePhone(opts.CustomerPhone),
	}

	result, err := s.gateway.CreatePreOrder(ctx, token, order)
	if err != nil {
		observability.RecordOrder("rejected")
		return nil, err
	}

	checkoutURL, err := s.gateway.CheckoutURL(result.PrepayID)
	if err != nil {
		observability.RecordOrder("sign_failed")
		return nil, err
	}

	tx := &models.Transaction{
		MerchOrderID:  order.MerchOrderID,
		PrepayID:      result.PrepayID,
		Title:         order.Title,
		Amount:        amount,
		Currency:      telebirr.CurrencyETB,
		Status:        models.StatusPending,
		CustomerPhone: order.CustomerPhone,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.logger.Error("Failed to persist created order; provider already accepted it",
			zap.String("merch_order_id", order.MerchOrderID),
			zap.String("prepay_id", result.PrepayID),
			zap.Error(err),
		)
	}

	observability.RecordOrder("created")
	s.logger.Info("Order created",
		zap.String("merch_order_id", order.MerchOrderID),
		zap.String("prepay_id", result.PrepayID),
		zap.String("amount", telebirr.FormatAmount(amount)),
	)

	return &CreateOrderResult{
		MerchOrderID: order.MerchOrderID,
		PrepayID:     result.PrepayID,
		CheckoutURL:  checkoutURL,
		RawResponse:  result.RawResponse,
	}, nil
}

// InitializePayment is the one-call facade for merchants: create the
// order and hand back the redirect URL
func (s *Service) InitializePayment(ctx context.Context, title string, amount decimal.Decimal, opts CreateOrderOptions) (merchOrderID, checkoutURL string, err error) {
	result, err := s.CreateOrder(ctx, title, amount, opts)
	if err != nil {
		return "", "", err
	}
	return result.MerchOrderID, result.CheckoutURL, nil
}

// QueryResult is the reported outcome of an order status query. Business
// failures are data, not errors: the caller renders them, nothing retries.
type QueryResult struct {
	Success bool
	Status  models.TransactionStatus
	Data    map[string]any
	Error   string
}

// QueryOrder polls the provider for the current order status and
// reconciles the local transaction. Gateway and auth failures are
// converted to a non-success result at this boundary.
func (s *Service) QueryOrder(ctx context.Context, merchOrderID string) (*QueryResult, error) {
	token, err := s.tokens.Token(ctx, false)
	if err != nil {
		s.logger.Warn("Order query: token acquisition failed", zap.Error(err))
		return &QueryResult{Success: false, Error: err.Error()}, nil
	}

	biz, err := s.gateway.QueryOrder(ctx, token, merchOrderID)
	if err != nil {
		s.logger.Warn("Order query failed",
			zap.String("merch_order_id", merchOrderID),
			zap.Error(err),
		)
		return &QueryResult{Success: false, Error: err.Error()}, nil
	}

	status := models.MapOrderStatus(str(biz["order_status"]))

	unlock := s.locks.Lock(merchOrderID)
	defer unlock()

	update := &models.Transaction{
		MerchOrderID:   merchOrderID,
		PaymentOrderID: str(biz["payment_order_id"]),
		TransID:        str(biz["trans_id"]),
		Status:         status,
		TradeStatus:    str(biz["order_status"]),
	}
	if t, ok := timeutil.ParseProviderTime(str(biz["trans_time"])); ok {
		update.CompletedAt = &t
	}
	if err := s.transactions.UpdateFromProvider(ctx, update); err != nil {
		s.logger.Warn("Order query: local update failed",
			zap.String("merch_order_id", merchOrderID),
			zap.Error(err),
		)
	}

	return &QueryResult{Success: true, Status: status, Data: biz}, nil
}

// RefundResult is the reported outcome of a refund submission
type RefundResult struct {
	Success         bool
	RefundRequestNo string
	Data            map[string]any
	Error           string
}

// ProcessRefund submits a refund for a locally known order. The refund
// amount is deliberately not checked against a remaining balance here;
// the provider is the authority on refundable amounts.
func (s *Service) ProcessRefund(ctx context.Context, merchOrderID string, amount decimal.Decimal, reason string) (*RefundResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "must be greater than zero")
	}

	tx, err := s.transactions.GetByMerchOrderID(ctx, merchOrderID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx, false)
	if err != nil {
		observability.RecordRefund("auth_failed")
		return &RefundResult{Success: false, Error: err.Error()}, nil
	}

	req := ports.RefundRequest{
		MerchOrderID:    merchOrderID,
		RefundRequestNo: telebirr.NewRefundRequestNo(),
		Amount:          amount,
		Reason:          reason,
	}

	biz, err := s.gateway.Refund(ctx, token, req)
	if err != nil {
		observability.RecordRefund("rejected")
		s.logger.Warn("Refund rejected",
			zap.String("merch_order_id", merchOrderID),
			zap.String("refund_request_no", req.RefundRequestNo),
			zap.Error(err),
		)
		return &RefundResult{Success: false, Error: err.Error()}, nil
	}

	raw, _ := json.Marshal(biz)
	refund := &models.Refund{
		RefundRequestNo: req.RefundRequestNo,
		TransactionID:   tx.ID,
		MerchOrderID:    merchOrderID,
		Amount:          amount,
		Reason:          reason,
		Status:          models.StatusPending,
		RawResponse:     raw,
	}
	if err := s.refunds.Create(ctx, refund); err != nil {
		s.logger.Error("Failed to persist refund; provider already accepted it",
			zap.String("refund_request_no", req.RefundRequestNo),
			zap.Error(err),
		)
	}

	observability.RecordRefund("submitted")
	return &RefundResult{Success: true, RefundRequestNo: req.RefundRequestNo, Data: biz}, nil
}

// notification payload fields that must be present before the signature
// is even checked
var requiredNotifyFields = []string{"merch_order_id", "payment_order_id", "trade_status", "sign"}

// HandleNotification validates and applies an asynchronous payment
// callback. The mapped status is applied unconditionally: the provider's
// latest word wins even when it arrives out of order.
func (s *Service) HandleNotification(ctx context.Context, payload map[string]any) error {
	for _, field := range requiredNotifyFields {
		if str(payload[field]) == "" {
			observability.RecordNotification("invalid_payload", "none")
			return apperrors.NewValidationError(field, "required field missing")
		}
	}

	if !s.verifier.VerifyPayload(payload) {
		observability.RecordNotification("invalid_signature", "none")
		s.logger.Warn("Notification signature verification failed",
			zap.String("merch_order_id", str(payload["merch_order_id"])),
		)
		return apperrors.NewSecurityError("notification signature invalid")
	}

	merchOrderID := str(payload["merch_order_id"])
	tradeStatus := str(payload["trade_status"])
	status := models.MapTradeStatus(tradeStatus)

	var completedAt *time.Time
	if t, ok := timeutil.ParseProviderTime(str(payload["trans_end_time"])); ok {
		completedAt = &t
	} else if t, ok := timeutil.ParseProviderTime(str(payload["trans_time"])); ok {
		completedAt = &t
	}

	raw, _ := json.Marshal(payload)

	unlock := s.locks.Lock(merchOrderID)
	defer unlock()

	update := &models.Transaction{
		MerchOrderID:     merchOrderID,
		PaymentOrderID:   str(payload["payment_order_id"]),
		TransID:          str(payload["trans_id"]),
		Status:           status,
		TradeStatus:      tradeStatus,
		RawNotifyPayload: raw,
		CompletedAt:      completedAt,
	}
	if err := s.transactions.UpdateFromProvider(ctx, update); err != nil {
		// the provider needs an ack regardless; a miss here usually means
		// the order was created by another system sharing the merchant code
		s.logger.Warn("Notification for unknown or stale order",
			zap.String("merch_order_id", merchOrderID),
			zap.String("trade_status", tradeStatus),
			zap.Error(err),
		)
	}

	observability.RecordNotification("accepted", string(status))
	s.logger.Info("Notification processed",
		zap.String("merch_order_id", merchOrderID),
		zap.String("trade_status", tradeStatus),
		zap.String("status", string(status)),
	)
	return nil
}

// GetTransaction loads a single transaction by merchant order id
func (s *Service) GetTransaction(ctx context.Context, merchOrderID string) (*models.Transaction, error) {
	return s.transactions.GetByMerchOrderID(ctx, merchOrderID)
}

// ListTransactions returns a page of transactions plus the total count
func (s *Service) ListTransactions(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.List(ctx, offset, limit)
}

// str coerces a payload value to a string. JSON decoding can surface
// numeric fields as json.Number or float64.
func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
