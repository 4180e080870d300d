package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the local state of a payment transaction
type TransactionStatus string

const (
	StatusPending      TransactionStatus = "PENDING"
	StatusProcessing   TransactionStatus = "PROCESSING"
	StatusCompleted    TransactionStatus = "COMPLETED"
	StatusFailed       TransactionStatus = "FAILED"
	StatusExpired      TransactionStatus = "EXPIRED"
	StatusClosed       TransactionStatus = "CLOSED"
	StatusAccepted     TransactionStatus = "ACCEPTED"
	StatusRefunding    TransactionStatus = "REFUNDING"
	StatusRefunded     TransactionStatus = "REFUNDED"
	StatusRefundFailed TransactionStatus = "REFUND_FAILED"
	StatusUnknown      TransactionStatus = "UNKNOWN"
)

// IsTerminal reports whether no further payment-side transition is expected.
// COMPLETED remains refundable; PROCESSING may transition again on a later
// callback or query.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusClosed:
		return true
	}
	return false
}

// Transaction represents a payment order tracked locally.
// MerchOrderID is the sole correlation key with the provider and is always
// purely numeric.
type Transaction struct {
	ID               int64
	MerchOrderID     string
	PrepayID         string
	PaymentOrderID   string
	TransID          string
	Title            string
	Amount           decimal.Decimal
	Currency         string
	Status           TransactionStatus
	TradeStatus      string // raw provider string, kept for reconciliation
	CustomerPhone    string
	RawNotifyPayload []byte
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Refund represents a refund request submitted to the provider.
// RefundRequestNo is strictly alphanumeric; the provider rejects anything else.
type Refund struct {
	ID              int64
	RefundRequestNo string
	TransactionID   int64
	MerchOrderID    string
	Amount          decimal.Decimal
	Reason          string
	Status          TransactionStatus
	RawResponse     []byte
	CreatedAt       time.Time
}

// APICallLog is the structured record of one outbound gateway call
type APICallLog struct {
	ID           int64
	Endpoint     string
	Method       string
	RequestBody  []byte
	ResponseBody []byte
	StatusCode   int
	Duration     time.Duration
	CreatedAt    time.Time
}

// MapTradeStatus maps the trade_status field of asynchronous notifications to
// a local status. The mapping is total: unrecognized provider strings map to
// UNKNOWN, never an error.
func MapTradeStatus(tradeStatus string) TransactionStatus {
	switch tradeStatus {
	case "Completed", "PAY_SUCCESS":
		return StatusCompleted
	case "Failure", "PAY_FAILED":
		return StatusFailed
	case "Paying", "PAYING":
		return StatusProcessing
	case "Expired":
		return StatusExpired
	case "ORDER_CLOSED":
		return StatusClosed
	default:
		return StatusUnknown
	}
}

// MapOrderStatus maps the order_status field of queryOrder responses to a
// local status. Total like MapTradeStatus.
func MapOrderStatus(orderStatus string) TransactionStatus {
	switch orderStatus {
	case "PAY_SUCCESS":
		return StatusCompleted
	case "PAY_FAILED":
		return StatusFailed
	case "WAIT_PAY":
		return StatusPending
	case "ORDER_CLOSED":
		return StatusClosed
	case "PAYING":
		return StatusProcessing
	case "ACCEPTED":
		return StatusAccepted
	case "REFUNDING":
		return StatusRefunding
	case "REFUND_SUCCESS":
		return StatusRefunded
	case "REFUND_FAILED":
		return StatusRefundFailed
	default:
		return StatusUnknown
	}
}
