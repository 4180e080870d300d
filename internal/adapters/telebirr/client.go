package telebirr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/domain/models"
	"github.com/addispay/telebirr-gateway/internal/domain/ports"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
	"github.com/addispay/telebirr-gateway/pkg/observability"
)

// Endpoint paths under the gateway API base URL
const (
	tokenPath    = "/payment/v1/token"
	preOrderPath = "/payment/v1/merchant/preOrder"
	queryPath    = "/payment/v1/merchant/queryOrder"
	refundPath   = "/payment/v1/merchant/refund"
)

// Config carries the gateway connection settings and merchant identity
type Config struct {
	// BaseURL is the gateway API origin, e.g. https://app.ethiomobilemoney.et:2121/ammapi
	BaseURL string
	// WebBaseURL is the hosted checkout page the customer is redirected to
	WebBaseURL string

	FabricAppID   string
	AppSecret     string
	MerchantAppID string
	MerchantCode  string

	NotifyURL   string
	RedirectURL string
}

// Response is the common shape of gateway business responses
type Response struct {
	Result     string         `json:"result"`
	Code       string         `json:"code"`
	Msg        string         `json:"msg"`
	ErrorMsg   string         `json:"errorMsg"`
	NonceStr   string         `json:"nonce_str"`
	Token      string         `json:"token"`
	Expiration string         `json:"expirationDate"`
	Sign       string         `json:"sign"`
	SignType   string         `json:"sign_type"`
	BizContent map[string]any `json:"biz_content"`
}

// Success reports whether the gateway accepted the business request
func (r *Response) Success() bool {
	return r.Result == "SUCCESS" && r.Code == "0"
}

// ErrorMessage returns the most specific provider error text available
func (r *Response) ErrorMessage() string {
	if r.ErrorMsg != "" {
		return r.ErrorMsg
	}
	if r.Msg != "" {
		return r.Msg
	}
	return "gateway request failed"
}

// Client is the shared HTTP transport for all gateway calls. Every call is
// recorded to the API log repository regardless of outcome; log writes are
// best-effort and never fail the call.
type Client struct {
	config     *Config
	httpClient ports.HTTPClient
	apiLogs    ports.APILogRepository
	logger     *zap.Logger
}

// NewClient creates a gateway transport client
func NewClient(config *Config, httpClient ports.HTTPClient, apiLogs ports.APILogRepository, logger *zap.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
		apiLogs:    apiLogs,
		logger:     logger,
	}
}

// Config exposes the gateway settings to sibling adapters
func (c *Client) Config() *Config {
	return c.config
}

// PostJSON sends a JSON body to path with the gateway's required headers
// and decodes the business response. operation labels metrics and logs;
// token is optional (empty for the token endpoint itself).
func (c *Client) PostJSON(ctx context.Context, operation, path, token string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewAPIError("", "failed to encode request", err.Error(), 0)
	}

	endpoint := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewAPIError("", "failed to create request", err.Error(), 0)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-APP-Key", c.config.FabricAppID)
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("Gateway request failed",
			zap.String("operation", operation),
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		c.recordCall(ctx, endpoint, payload, nil, 0, elapsed)
		observability.RecordGatewayRequest(operation, "transport_error", elapsed)
		return nil, apperrors.NewAPIError("", "gateway unreachable", err.Error(), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordCall(ctx, endpoint, payload, nil, resp.StatusCode, elapsed)
		observability.RecordGatewayRequest(operation, "read_error", elapsed)
		return nil, apperrors.NewAPIError("", "failed to read gateway response", err.Error(), resp.StatusCode)
	}

	c.logger.Debug("Gateway response received",
		zap.String("operation", operation),
		zap.String("endpoint", endpoint),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.Int("body_length", len(respBody)),
	)
	c.recordCall(ctx, endpoint, payload, respBody, resp.StatusCode, elapsed)

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		observability.RecordGatewayRequest(operation, "parse_error", elapsed)
		return nil, apperrors.NewAPIError("", "unparsable gateway response", string(respBody), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		observability.RecordGatewayRequest(operation, fmt.Sprintf("http_%d", resp.StatusCode), elapsed)
		return nil, apperrors.NewAPIError(parsed.Code, "gateway returned non-success status", parsed.ErrorMessage(), resp.StatusCode)
	}

	observability.RecordGatewayRequest(operation, "ok", elapsed)
	return &parsed, nil
}

func (c *Client) recordCall(ctx context.Context, endpoint string, reqBody, respBody []byte, status int, elapsed time.Duration) {
	if c.apiLogs == nil {
		return
	}
	// The token request body carries the app secret; never persist it
	if strings.HasSuffix(endpoint, tokenPath) {
		reqBody = []byte(`{"appSecret":"[REDACTED]"}`)
	}
	entry := &models.APICallLog{
		Endpoint:     endpoint,
		Method:       http.MethodPost,
		RequestBody:  reqBody,
		ResponseBody: respBody,
		StatusCode:   status,
		Duration:     elapsed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.apiLogs.Record(ctx, entry); err != nil {
		c.logger.Warn("Failed to record API call log", zap.String("endpoint", endpoint), zap.Error(err))
	}
}
