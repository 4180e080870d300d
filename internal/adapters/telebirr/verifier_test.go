package telebirr

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_MangledSignatureEncodings(t *testing.T) {
	signer, verifier := newTestKeys(t)

	canonical := "merch_order_id=1&trade_status=Completed"
	sig, err := signer.Sign(canonical)
	require.NoError(t, err)

	// transports mangle the base64 in predictable ways; all of these must
	// still verify
	tests := []struct {
		name string
		sig  string
	}{
		{"raw base64", sig},
		{"plus replaced by space", strings.ReplaceAll(sig, "+", " ")},
		{"url encoded", url.QueryEscape(sig)},
		{"padding stripped", strings.TrimRight(sig, "=")},
		{"url encoded and padding stripped", url.QueryEscape(strings.TrimRight(sig, "="))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, verifier.Verify(canonical, tt.sig))
		})
	}
}

func TestVerify_RejectsInvalid(t *testing.T) {
	_, verifier := newTestKeys(t)

	assert.False(t, verifier.Verify("anything", ""))
	assert.False(t, verifier.Verify("anything", "not base64 at all!!!"))
	assert.False(t, verifier.Verify("anything", "QUJDRA==")) // decodes but wrong signature
}

func TestVerifyPayload(t *testing.T) {
	signer, verifier := newTestKeys(t)

	payload := map[string]any{
		"merch_order_id":   "17000000001234",
		"payment_order_id": "PO1",
		"trade_status":     "Completed",
		"trans_id":         "T1",
		"sign_type":        SignType,
	}
	sig, err := signer.Sign(CanonicalizePayload(payload))
	require.NoError(t, err)
	payload["sign"] = sig

	assert.True(t, verifier.VerifyPayload(payload))

	// tampering with any signed field must invalidate the signature
	payload["trade_status"] = "Paying"
	assert.False(t, verifier.VerifyPayload(payload))
}

func TestVerifyPayload_MissingSign(t *testing.T) {
	_, verifier := newTestKeys(t)
	assert.False(t, verifier.VerifyPayload(map[string]any{"merch_order_id": "1"}))
}

func TestCanonicalizePayload(t *testing.T) {
	payload := map[string]any{
		"b":         "2",
		"a":         "1",
		"sign":      "drop",
		"sign_type": "drop",
		"empty":     "",  // inbound empty values are kept
		"null":      nil, // rendered as empty string
		"nested":    map[string]any{"k": "v"},
	}
	// verify path keeps everything except sign/sign_type and JSON-encodes
	// non-scalar values
	assert.Equal(t, `a=1&b=2&empty=&nested={"k":"v"}&null=`, CanonicalizePayload(payload))
}
