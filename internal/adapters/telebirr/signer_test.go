package telebirr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addispay/telebirr-gateway/pkg/crypto"
)

func newTestKeys(t *testing.T) (*Signer, *Verifier) {
	t.Helper()
	keys, err := crypto.GenerateRSAKeyPair()
	require.NoError(t, err)
	signer, err := NewSigner(keys.PrivateKeyPEM)
	require.NoError(t, err)
	verifier, err := NewVerifier(keys.PublicKeyPEM)
	require.NoError(t, err)
	return signer, verifier
}

func TestCanonicalizeRequest(t *testing.T) {
	req := &Request{
		Timestamp: "1700000000",
		NonceStr:  "ABC123",
		Method:    MethodPreOrder,
		Version:   Version,
		SignType:  SignType,
		BizContent: map[string]any{
			"merch_order_id": "17000000001234",
			"total_amount":   "100.00",
			"appid":          "app1",
		},
	}

	// byte-sorted keys, key=value joined with &, no URL encoding
	want := "appid=app1&merch_order_id=17000000001234&method=payment.preorder" +
		"&nonce_str=ABC123&timestamp=1700000000&total_amount=100.00&version=1.0"
	assert.Equal(t, want, CanonicalizeRequest(req))
}

func TestCanonicalizeRequest_Determinism(t *testing.T) {
	// two requests with the same fields inserted in different orders must
	// canonicalize identically
	a := NewRequest(MethodQueryOrder, map[string]any{
		"appid":          "app1",
		"merch_code":     "m1",
		"merch_order_id": "123",
	})
	b := NewRequest(MethodQueryOrder, map[string]any{
		"merch_order_id": "123",
		"merch_code":     "m1",
		"appid":          "app1",
	})
	b.Timestamp = a.Timestamp
	b.NonceStr = a.NonceStr

	assert.Equal(t, CanonicalizeRequest(a), CanonicalizeRequest(b))
}

func TestCanonicalizeRequest_Exclusions(t *testing.T) {
	req := &Request{
		Timestamp: "1",
		NonceStr:  "n",
		Method:    "m",
		Version:   "1.0",
		SignType:  SignType,
		Sign:      "should-not-appear",
		BizContent: map[string]any{
			"keep_me":               "yes",
			"sign":                  "drop",
			"sign_type":             "drop",
			"header":                "drop",
			"refund_info":           "drop",
			"openType":              "drop",
			"raw_request":           "drop",
			"wallet_reference_data": "drop",
			"nested":                map[string]any{"a": 1}, // non-scalar, dropped on the signing path
			"empty":                 "",
			"null":                  nil,
		},
	}

	canonical := CanonicalizeRequest(req)
	assert.Equal(t, "keep_me=yes&method=m&nonce_str=n&timestamp=1&version=1.0", canonical)
	assert.NotContains(t, canonical, "drop")
	assert.NotContains(t, canonical, "should-not-appear")
}

func TestCanonicalizeRequest_StringifiesScalars(t *testing.T) {
	req := &Request{
		Timestamp: "1",
		NonceStr:  "n",
		Method:    "m",
		Version:   "1.0",
		BizContent: map[string]any{
			"count":   7,
			"ratio":   1.5,
			"enabled": true,
		},
	}
	assert.Equal(t,
		"count=7&enabled=true&method=m&nonce_str=n&ratio=1.5&timestamp=1&version=1.0",
		CanonicalizeRequest(req))
}

func TestCanonicalizeParams_ExcludesSignFields(t *testing.T) {
	canonical := CanonicalizeParams(map[string]string{
		"appid":     "a",
		"prepay_id": "p",
		"sign":      "drop",
		"sign_type": "drop",
	})
	assert.Equal(t, "appid=a&prepay_id=p", canonical)
}

func TestSignRequest_RoundTrip(t *testing.T) {
	signer, verifier := newTestKeys(t)

	req := NewRequest(MethodPreOrder, map[string]any{
		"merch_order_id": "123",
		"total_amount":   "50.00",
	})
	require.NoError(t, signer.SignRequest(req))
	require.NotEmpty(t, req.Sign)

	canonical := CanonicalizeRequest(req)
	assert.True(t, verifier.Verify(canonical, req.Sign))

	// flipping one byte of the payload must break verification
	assert.False(t, verifier.Verify(canonical+"x", req.Sign))

	// and so must a tampered signature
	tampered := []byte(req.Sign)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}
	assert.False(t, verifier.Verify(canonical, string(tampered)))
}

func TestNewSigner_BadKey(t *testing.T) {
	_, err := NewSigner("not a pem key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signing error")
}

func TestNewVerifier_BadKey(t *testing.T) {
	_, err := NewVerifier("garbage")
	require.Error(t, err)
}
