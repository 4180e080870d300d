package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// PreOrder carries the merchant-supplied fields of an order-creation call.
// Title and CustomerPhone are expected to be sanitized before they reach
// the gateway.
type PreOrder struct {
	MerchOrderID  string
	Title         string
	Amount        decimal.Decimal
	CallbackInfo  string
	CustomerPhone string
}

// PreOrderResult is the outcome of a successful order creation
type PreOrderResult struct {
	MerchOrderID string
	PrepayID     string
	RawResponse  map[string]any
}

// RefundRequest carries the fields of a refund submission
type RefundRequest struct {
	MerchOrderID    string
	RefundRequestNo string
	Amount          decimal.Decimal
	Reason          string
}

// PaymentGateway is the outbound port to the mobile-money provider.
// Implementations sign each request and surface provider rejections as
// APIError.
type PaymentGateway interface {
	CreatePreOrder(ctx context.Context, token string, order PreOrder) (*PreOrderResult, error)
	QueryOrder(ctx context.Context, token, merchOrderID string) (map[string]any, error)
	Refund(ctx context.Context, token string, req RefundRequest) (map[string]any, error)

	// CheckoutURL derives the signed redirect URL for a created order.
	// Pure given a prepay id; no network traffic.
	CheckoutURL(prepayID string) (string, error)
}
