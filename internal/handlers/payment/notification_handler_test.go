package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/adapters/telebirr"
	"github.com/addispay/telebirr-gateway/internal/domain/models"
	paymentservice "github.com/addispay/telebirr-gateway/internal/services/payment"
	"github.com/addispay/telebirr-gateway/pkg/crypto"
	"github.com/addispay/telebirr-gateway/test/mocks"
)

// notification handling never touches the gateway or token provider, so
// the handler under test only needs a verifier and the repositories
func newNotifyTestSetup(t *testing.T) (*NotificationHandler, *telebirr.Signer, *mocks.InMemoryTransactionRepository) {
	t.Helper()

	keys, err := crypto.GenerateRSAKeyPair()
	require.NoError(t, err)
	signer, err := telebirr.NewSigner(keys.PrivateKeyPEM)
	require.NoError(t, err)
	verifier, err := telebirr.NewVerifier(keys.PublicKeyPEM)
	require.NoError(t, err)

	logger := zap.NewNop()
	transactions := mocks.NewInMemoryTransactionRepository()
	service := paymentservice.NewService(nil, nil, transactions, mocks.NewInMemoryRefundRepository(), verifier, logger)

	return NewNotificationHandler(service, logger), signer, transactions
}

func seedPendingTransaction(t *testing.T, repo *mocks.InMemoryTransactionRepository, merchOrderID string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &models.Transaction{
		MerchOrderID: merchOrderID,
		Title:        "Seeded",
		Amount:       decimal.RequireFromString("50.00"),
		Currency:     "ETB",
		Status:       models.StatusPending,
	}))
}

func signedNotifyValues(t *testing.T, signer *telebirr.Signer, fields map[string]string) url.Values {
	t.Helper()
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}
	sig, err := signer.Sign(telebirr.CanonicalizePayload(payload))
	require.NoError(t, err)

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("sign", sig)
	values.Set("sign_type", telebirr.SignType)
	return values
}

func postNotify(handler *NotificationHandler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/callbacks/telebirr/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.HandleNotify(rec, req)
	return rec
}

func TestHandleNotify_FormBody(t *testing.T) {
	handler, signer, transactions := newNotifyTestSetup(t)
	seedPendingTransaction(t, transactions, "1700000001001")

	values := signedNotifyValues(t, signer, map[string]string{
		"merch_order_id":   "1700000001001",
		"payment_order_id": "PO1",
		"trade_status":     "Completed",
		"trans_id":         "T1",
	})

	rec := postNotify(handler, "application/x-www-form-urlencoded", values.Encode())

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])

	tx, err := transactions.GetByMerchOrderID(context.Background(), "1700000001001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tx.Status)
}

func TestHandleNotify_JSONBody(t *testing.T) {
	handler, signer, transactions := newNotifyTestSetup(t)
	seedPendingTransaction(t, transactions, "1700000001002")

	payload := map[string]any{
		"merch_order_id":   "1700000001002",
		"payment_order_id": "PO2",
		"trade_status":     "Completed",
	}
	sig, err := signer.Sign(telebirr.CanonicalizePayload(payload))
	require.NoError(t, err)
	payload["sign"] = sig
	payload["sign_type"] = telebirr.SignType
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := postNotify(handler, "application/json", string(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	tx, err := transactions.GetByMerchOrderID(context.Background(), "1700000001002")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tx.Status)
}

func TestHandleNotify_TamperedSignature(t *testing.T) {
	handler, signer, transactions := newNotifyTestSetup(t)
	seedPendingTransaction(t, transactions, "1700000001003")

	values := signedNotifyValues(t, signer, map[string]string{
		"merch_order_id":   "1700000001003",
		"payment_order_id": "PO3",
		"trade_status":     "Failure",
	})
	// upgrade the status after signing
	values.Set("trade_status", "Completed")

	rec := postNotify(handler, "application/x-www-form-urlencoded", values.Encode())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])

	tx, _ := transactions.GetByMerchOrderID(context.Background(), "1700000001003")
	assert.Equal(t, models.StatusPending, tx.Status)
}

func TestHandleNotify_MissingField(t *testing.T) {
	handler, _, _ := newNotifyTestSetup(t)

	values := url.Values{}
	values.Set("merch_order_id", "1700000001004")
	values.Set("trade_status", "Completed")
	values.Set("sign", "whatever")

	rec := postNotify(handler, "application/x-www-form-urlencoded", values.Encode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNotify_MalformedJSON(t *testing.T) {
	handler, _, _ := newNotifyTestSetup(t)

	rec := postNotify(handler, "application/json", `{"merch_order_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNotify_UnknownOrderStillAcknowledged(t *testing.T) {
	handler, signer, _ := newNotifyTestSetup(t)

	values := signedNotifyValues(t, signer, map[string]string{
		"merch_order_id":   "never-created",
		"payment_order_id": "PO9",
		"trade_status":     "Completed",
	})

	// the provider retries on anything but 200; a valid signature is
	// acknowledged even when the order is unknown locally
	rec := postNotify(handler, "application/x-www-form-urlencoded", values.Encode())
	assert.Equal(t, http.StatusOK, rec.Code)
}
