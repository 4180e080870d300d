package telebirr

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/addispay/telebirr-gateway/pkg/crypto"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// signExcluded is the field exclusion set for outgoing request signatures.
// biz_content itself is excluded because its scalar entries are flattened
// into the canonical string individually.
var signExcluded = map[string]struct{}{
	"sign":                  {},
	"sign_type":             {},
	"header":                {},
	"refund_info":           {},
	"openType":              {},
	"raw_request":           {},
	"wallet_reference_data": {},
	"biz_content":           {},
}

// Signer produces RSA-PSS-SHA256 signatures over the canonical string
// representation of gateway requests
type Signer struct {
	privateKey *rsa.PrivateKey
}

// NewSigner parses a PEM-encoded RSA private key. Fails with a
// SigningError if the key material is unparsable.
func NewSigner(privateKeyPEM string) (*Signer, error) {
	key, err := crypto.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, apperrors.NewSigningError("failed to parse private key", err)
	}
	return &Signer{privateKey: key}, nil
}

// SignRequest computes the canonical string of req and sets req.Sign to
// the base64 PSS signature over it
func (s *Signer) SignRequest(req *Request) error {
	sign, err := s.Sign(CanonicalizeRequest(req))
	if err != nil {
		return err
	}
	req.Sign = sign
	return nil
}

// Sign signs an already-canonicalized message and returns the signature
// base64-encoded
func (s *Signer) Sign(canonical string) (string, error) {
	sig, err := crypto.SignPSS(s.privateKey, []byte(canonical))
	if err != nil {
		return "", apperrors.NewSigningError("signing failed", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// SignParams canonicalizes a flat parameter map (the checkout-URL case)
// and signs it
func (s *Signer) SignParams(params map[string]string) (string, error) {
	return s.Sign(CanonicalizeParams(params))
}

// CanonicalizeRequest builds the deterministic signing string for an
// outgoing request: top-level scalar fields plus flattened biz_content
// scalars, minus the exclusion set, byte-sorted by key and joined as
// key=value&key=value with no URL encoding.
//
// Nil and empty-string biz_content entries are dropped; top-level fields
// are kept even when empty.
func CanonicalizeRequest(req *Request) string {
	fields := map[string]string{
		"timestamp": req.Timestamp,
		"nonce_str": req.NonceStr,
		"method":    req.Method,
		"version":   req.Version,
	}
	for k, v := range req.BizContent {
		if _, skip := signExcluded[k]; skip {
			continue
		}
		if v == nil {
			continue
		}
		if !isScalar(v) {
			continue
		}
		s := stringify(v)
		if s == "" {
			continue
		}
		fields[k] = s
	}
	return joinSorted(fields)
}

// CanonicalizeParams builds the signing string for a flat parameter set,
// excluding only sign and sign_type
func CanonicalizeParams(params map[string]string) string {
	fields := make(map[string]string, len(params))
	for k, v := range params {
		if k == "sign" || k == "sign_type" {
			continue
		}
		fields[k] = v
	}
	return joinSorted(fields)
}

func joinSorted(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any, map[string]string:
		return false
	}
	return true
}

// stringify coerces a field value to its canonical string form.
// Numbers keep their shortest representation; booleans render as
// true/false.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
