package telebirr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/domain/ports"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// gatewayAdapter implements the PaymentGateway port against the provider's
// merchant API
type gatewayAdapter struct {
	client *Client
	signer *Signer
	logger *zap.Logger
}

// NewGatewayAdapter creates the outbound gateway adapter
func NewGatewayAdapter(client *Client, signer *Signer, logger *zap.Logger) ports.PaymentGateway {
	return &gatewayAdapter{
		client: client,
		signer: signer,
		logger: logger,
	}
}

// CreatePreOrder submits a signed payment.preorder request. Success
// requires result SUCCESS, code 0 and a prepay_id in the business
// content; anything else surfaces as an APIError carrying the provider's
// message.
func (a *gatewayAdapter) CreatePreOrder(ctx context.Context, token string, order ports.PreOrder) (*ports.PreOrderResult, error) {
	cfg := a.client.Config()

	biz := map[string]any{
		"notify_url":            cfg.NotifyURL,
		"redirect_url":          cfg.RedirectURL,
		"appid":                 cfg.MerchantAppID,
		"merch_code":            cfg.MerchantCode,
		"merch_order_id":        order.MerchOrderID,
		"trade_type":            TradeTypeCheckout,
		"title":                 order.Title,
		"total_amount":          FormatAmount(order.Amount),
		"trans_currency":        CurrencyETB,
		"timeout_express":       TimeoutExpress,
		"business_type":         BusinessTypeBuyGood,
		"payee_identifier":      cfg.MerchantCode,
		"payee_identifier_type": PayeeIdentifierType,
		"payee_type":            PayeeType,
	}
	if order.CallbackInfo != "" {
		biz["callback_info"] = SanitizeCallbackInfo(order.CallbackInfo)
	}
	if order.CustomerPhone != "" {
		biz["customer_phone"] = order.CustomerPhone
	}

	req := NewRequest(MethodPreOrder, biz)
	if err := a.signer.SignRequest(req); err != nil {
		return nil, err
	}

	a.logger.Info("Submitting pre-order",
		zap.String("merch_order_id", order.MerchOrderID),
		zap.String("amount", FormatAmount(order.Amount)),
	)

	resp, err := a.client.PostJSON(ctx, "preorder", preOrderPath, token, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, apperrors.NewAPIError(resp.Code, "pre-order rejected", resp.ErrorMessage(), 200)
	}

	prepayID, _ := resp.BizContent["prepay_id"].(string)
	if prepayID == "" {
		return nil, apperrors.NewAPIError(resp.Code, "prepay_id missing from pre-order response", resp.ErrorMessage(), 200)
	}

	return &ports.PreOrderResult{
		MerchOrderID: order.MerchOrderID,
		PrepayID:     prepayID,
		RawResponse:  resp.BizContent,
	}, nil
}

// QueryOrder submits a signed payment.queryorder request and returns the
// provider's business content
func (a *gatewayAdapter) QueryOrder(ctx context.Context, token, merchOrderID string) (map[string]any, error) {
	cfg := a.client.Config()

	req := NewRequest(MethodQueryOrder, map[string]any{
		"appid":          cfg.MerchantAppID,
		"merch_code":     cfg.MerchantCode,
		"merch_order_id": merchOrderID,
	})
	if err := a.signer.SignRequest(req); err != nil {
		return nil, err
	}

	resp, err := a.client.PostJSON(ctx, "queryorder", queryPath, token, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, apperrors.NewAPIError(resp.Code, "order query rejected", resp.ErrorMessage(), 200)
	}
	return resp.BizContent, nil
}

// Refund submits a signed payment.refund request
func (a *gatewayAdapter) Refund(ctx context.Context, token string, refund ports.RefundRequest) (map[string]any, error) {
	cfg := a.client.Config()

	req := NewRequest(MethodRefund, map[string]any{
		"appid":             cfg.MerchantAppID,
		"merch_code":        cfg.MerchantCode,
		"merch_order_id":    refund.MerchOrderID,
		"refund_request_no": refund.RefundRequestNo,
		"refund_reason":     refund.Reason,
		"actual_amount":     FormatAmount(refund.Amount),
		"trans_currency":    CurrencyETB,
	})
	if err := a.signer.SignRequest(req); err != nil {
		return nil, err
	}

	a.logger.Info("Submitting refund",
		zap.String("merch_order_id", refund.MerchOrderID),
		zap.String("refund_request_no", refund.RefundRequestNo),
		zap.String("amount", FormatAmount(refund.Amount)),
	)

	resp, err := a.client.PostJSON(ctx, "refund", refundPath, token, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, apperrors.NewAPIError(resp.Code, "refund rejected", resp.ErrorMessage(), 200)
	}
	return resp.BizContent, nil
}

// CheckoutURL signs the flat redirect parameter set and assembles the
// hosted checkout URL. Query values are URL-encoded individually; the
// signature itself is computed over the raw, unencoded values.
func (a *gatewayAdapter) CheckoutURL(prepayID string) (string, error) {
	cfg := a.client.Config()

	params := map[string]string{
		"appid":      cfg.MerchantAppID,
		"merch_code": cfg.MerchantCode,
		"nonce_str":  NewNonce(),
		"prepay_id":  prepayID,
		"timestamp":  strconv.FormatInt(time.Now().Unix(), 10),
	}

	sign, err := a.signer.SignParams(params)
	if err != nil {
		return "", err
	}

	params["sign"] = sign
	params["sign_type"] = SignType
	params["version"] = Version
	params["trade_type"] = TradeTypeCheckout

	// fixed ordering keeps generated URLs stable and easy to eyeball
	order := []string{"appid", "merch_code", "nonce_str", "prepay_id", "timestamp", "sign", "sign_type", "version", "trade_type"}
	pairs := make([]string, 0, len(order))
	for _, k := range order {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, url.QueryEscape(params[k])))
	}
	return cfg.WebBaseURL + "?" + strings.Join(pairs, "&"), nil
}
