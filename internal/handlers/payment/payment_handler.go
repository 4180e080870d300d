package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
	paymentservice "github.com/addispay/telebirr-gateway/internal/services/payment"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// Handler exposes the merchant-facing JSON API for payments
type Handler struct {
	service *paymentservice.Service
	logger  *zap.Logger
}

// NewHandler creates the payment API handler
func NewHandler(service *paymentservice.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the payment endpoints on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments", h.CreatePayment)
	mux.HandleFunc("GET /api/v1/payments", h.ListPayments)
	mux.HandleFunc("GET /api/v1/payments/{id}", h.GetPayment)
	mux.HandleFunc("POST /api/v1/payments/{id}/refund", h.RefundPayment)
}

type createPaymentRequest struct {
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	CallbackInfo  string `json:"callback_info,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type createPaymentResponse struct {
	MerchOrderID string `json:"merch_order_id"`
	PrepayID     string `json:"prepay_id"`
	CheckoutURL  string `json:"checkout_url"`
}

// CreatePayment initializes a payment order and returns the checkout
// redirect URL
// Endpoint: POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}

	result, err := h.service.CreateOrder(r.Context(), req.Title, amount, paymentservice.CreateOrderOptions{
		CallbackInfo:  req.CallbackInfo,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentResponse{
		MerchOrderID: result.MerchOrderID,
		PrepayID:     result.PrepayID,
		CheckoutURL:  result.CheckoutURL,
	})
}

type transactionResponse struct {
	MerchOrderID   string     `json:"merch_order_id"`
	PrepayID       string     `json:"prepay_id,omitempty"`
	PaymentOrderID string     `json:"payment_order_id,omitempty"`
	TransID        string     `json:"trans_id,omitempty"`
	Title          string     `json:"title"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	TradeStatus    string     `json:"trade_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func toTransactionResponse(tx *models.Transaction) transactionResponse {
	return transactionResponse{
		MerchOrderID:   tx.MerchOrderID,
		PrepayID:       tx.PrepayID,
		PaymentOrderID: tx.PaymentOrderID,
		TransID:        tx.TransID,
		Title:          tx.Title,
		Amount:         tx.Amount.StringFixed(2),
		Currency:       tx.Currency,
		Status:         string(tx.Status),
		TradeStatus:    tx.TradeStatus,
		CreatedAt:      tx.CreatedAt,
		CompletedAt:    tx.CompletedAt,
	}
}

// GetPayment returns the local transaction. With ?refresh=true the
// provider is queried first and the local record reconciled before the
// read.
// Endpoint: GET /api/v1/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	merchOrderID := r.PathValue("id")
	if merchOrderID == "" {
		writeError(w, http.StatusBadRequest, "merchant order id is required")
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		result, err := h.service.QueryOrder(r.Context(), merchOrderID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if !result.Success {
			h.logger.Warn("Provider query failed during refresh",
				zap.String("merch_order_id", merchOrderID),
				zap.String("error", result.Error),
			)
		}
	}

	tx, err := h.service.GetTransaction(r.Context(), merchOrderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

type listPaymentsResponse struct {
	Payments []transactionResponse `json:"payments"`
	Total    int64                 `json:"total"`
	Offset   int                   `json:"offset"`
	Limit    int                   `json:"limit"`
}

// ListPayments returns a page of transactions, newest first
// Endpoint: GET /api/v1/payments?offset=0&limit=20
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txs, total, err := h.service.ListTransactions(r.Context(), offset, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	payments := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		payments = append(payments, toTransactionResponse(tx))
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	writeJSON(w, http.StatusOK, listPaymentsResponse{
		Payments: payments,
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	})
}

type refundRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type refundResponse struct {
	Success         bool           `json:"success"`
	RefundRequestNo string         `json:"refund_request_no,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// RefundPayment submits a refund for an existing order
// Endpoint: POST /api/v1/payments/{id}/refund
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	merchOrderID := r.PathValue("id")
	if merchOrderID == "" {
		writeError(w, http.StatusBadRequest, "merchant order id is required")
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}

	result, err := h.service.ProcessRefund(r.Context(), merchOrderID, amount, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, refundResponse{
		Success:         result.Success,
		RefundRequestNo: result.RefundRequestNo,
		Data:            result.Data,
		Error:           result.Error,
	})
}

// writeServiceError maps the service error taxonomy to HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	var notFoundErr *apperrors.NotFoundError
	var authErr *apperrors.AuthError
	var apiErr *apperrors.APIError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, authErr.Error())
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, apiErr.Error())
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
