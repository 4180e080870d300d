package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapTradeStatus(t *testing.T) {
	// every documented provider string resolves to exactly one local
	// status; anything else maps to UNKNOWN, never an error
	tests := []struct {
		tradeStatus string
		want        TransactionStatus
	}{
		{"Completed", StatusCompleted},
		{"PAY_SUCCESS", StatusCompleted},
		{"Failure", StatusFailed},
		{"PAY_FAILED", StatusFailed},
		{"Paying", StatusProcessing},
		{"PAYING", StatusProcessing},
		{"Expired", StatusExpired},
		{"ORDER_CLOSED", StatusClosed},
		{"", StatusUnknown},
		{"SOMETHING_NEW", StatusUnknown},
		{"completed", StatusUnknown}, // case-sensitive on purpose
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapTradeStatus(tt.tradeStatus), "trade_status %q", tt.tradeStatus)
	}
}

func TestMapOrderStatus(t *testing.T) {
	tests := []struct {
		orderStatus string
		want        TransactionStatus
	}{
		{"PAY_SUCCESS", StatusCompleted},
		{"PAY_FAILED", StatusFailed},
		{"WAIT_PAY", StatusPending},
		{"ORDER_CLOSED", StatusClosed},
		{"PAYING", StatusProcessing},
		{"ACCEPTED", StatusAccepted},
		{"REFUNDING", StatusRefunding},
		{"REFUND_SUCCESS", StatusRefunded},
		{"REFUND_FAILED", StatusRefundFailed},
		{"", StatusUnknown},
		{"NOT_A_STATUS", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapOrderStatus(tt.orderStatus), "order_status %q", tt.orderStatus)
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []TransactionStatus{StatusCompleted, StatusFailed, StatusExpired, StatusClosed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	// PROCESSING may transition again on a later callback or query
	nonTerminal := []TransactionStatus{
		StatusPending, StatusProcessing, StatusAccepted,
		StatusRefunding, StatusRefunded, StatusRefundFailed, StatusUnknown,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}
