package telebirr

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway protocol constants. These values are fixed by the provider's C2B
// API contract and are not configurable.
const (
	MethodPreOrder   = "payment.preorder"
	MethodQueryOrder = "payment.queryorder"
	MethodRefund     = "payment.refund"

	Version  = "1.0"
	SignType = "SHA256WithRSA"

	CurrencyETB = "ETB"

	TradeTypeCheckout   = "Checkout"
	BusinessTypeBuyGood = "BuyGoods"
	TimeoutExpress      = "120m"

	PayeeIdentifierType = "04"
	PayeeType           = "5000"

	// DefaultTitle is used when a submitted order title sanitizes to nothing
	DefaultTitle = "Product Payment"

	maxTitleLen    = 100
	maxCallbackLen = 255
)

// Request is the signed envelope posted to the gateway's merchant endpoints.
// Sign is appended only after the canonical string is computed over all
// other fields.
type Request struct {
	Timestamp  string         `json:"timestamp"`
	NonceStr   string         `json:"nonce_str"`
	Method     string         `json:"method"`
	Version    string         `json:"version"`
	BizContent map[string]any `json:"biz_content"`
	SignType   string         `json:"sign_type"`
	Sign       string         `json:"sign,omitempty"`
}

// NewRequest builds an unsigned request envelope with a fresh timestamp
// and nonce
func NewRequest(method string, bizContent map[string]any) *Request {
	return &Request{
		Timestamp:  strconv.FormatInt(time.Now().Unix(), 10),
		NonceStr:   NewNonce(),
		Method:     method,
		Version:    Version,
		BizContent: bizContent,
		SignType:   SignType,
	}
}

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewNonce returns a 32-character uppercase alphanumeric nonce
func NewNonce() string {
	var b strings.Builder
	b.Grow(32)
	max := big.NewInt(int64(len(nonceAlphabet)))
	for i := 0; i < 32; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(fmt.Sprintf("nonce generation: %v", err))
		}
		b.WriteByte(nonceAlphabet[n.Int64()])
	}
	return b.String()
}

// NewMerchOrderID generates a purely numeric merchant order id:
// unix timestamp followed by four random digits. Uniqueness within the
// same second is probabilistic; the collision odds are accepted.
func NewMerchOrderID() string {
	return fmt.Sprintf("%d%04d", time.Now().Unix(), randomDigits())
}

// NewRefundRequestNo generates a strictly alphanumeric refund request
// number. The provider rejects request numbers containing separators.
func NewRefundRequestNo() string {
	return fmt.Sprintf("REF%d%04d", time.Now().Unix(), randomDigits())
}

func randomDigits() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		panic(fmt.Sprintf("random suffix: %v", err))
	}
	return n.Int64()
}

// FormatAmount renders an amount with exactly two decimal digits and a
// dot separator, locale-independent
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

var (
	titleAllowed   = regexp.MustCompile(`[^A-Za-z0-9 ]+`)
	multipleSpaces = regexp.MustCompile(`\s+`)
	digitsOnly     = regexp.MustCompile(`[^0-9]+`)
)

// SanitizeTitle strips everything outside [A-Za-z0-9 ], collapses
// whitespace, trims, and truncates to 100 characters. An empty result
// falls back to DefaultTitle.
func SanitizeTitle(title string) string {
	s := titleAllowed.ReplaceAllString(title, "")
	s = multipleSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLen {
		s = strings.TrimSpace(s[:maxTitleLen])
	}
	if s == "" {
		return DefaultTitle
	}
	return s
}

// SanitizeCallbackInfo truncates free-form merchant callback info to the
// provider's 255-character limit
func SanitizeCallbackInfo(info string) string {
	if len(info) > maxCallbackLen {
		return info[:maxCallbackLen]
	}
	return info
}

// SanitizePhone keeps digits only
func SanitizePhone(phone string) string {
	return digitsOnly.ReplaceAllString(phone, "")
}
