package telebirr

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/addispay/telebirr-gateway/pkg/crypto"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// Verifier checks RSA-PSS-SHA256 signatures on inbound provider payloads
// (asynchronous notifications and browser returns)
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses a PEM-encoded RSA public key
func NewVerifier(publicKeyPEM string) (*Verifier, error) {
	key, err := crypto.ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, apperrors.NewSigningError("failed to parse public key", err)
	}
	return &Verifier{publicKey: key}, nil
}

// VerifyPayload canonicalizes the inbound field set (excluding only sign
// and sign_type) and checks the detached signature against it. It never
// returns an error: any internal failure reads as an invalid signature.
func (v *Verifier) VerifyPayload(payload map[string]any) bool {
	sig, _ := payload["sign"].(string)
	if sig == "" {
		return false
	}
	return v.Verify(CanonicalizePayload(payload), sig)
}

// Verify checks a base64 signature against an already-canonicalized
// message. Signatures often arrive mangled by intermediate transports
// (URL-decoded, + turned into spaces, padding stripped), so several
// decodings are attempted; the first that base64-decodes to a nonzero
// length and passes RSA verification wins.
func (v *Verifier) Verify(canonical, signature string) bool {
	msg := []byte(canonical)
	for _, candidate := range signatureCandidates(signature) {
		raw, err := base64.StdEncoding.DecodeString(candidate)
		if err != nil || len(raw) == 0 {
			continue
		}
		if crypto.VerifyPSS(v.publicKey, msg, raw) {
			return true
		}
	}
	return false
}

// CanonicalizePayload builds the verification string for an inbound
// payload. Unlike the signing path, every field except sign/sign_type
// participates; non-scalar values are JSON-encoded rather than dropped
// because inbound payloads carry no nested business-content wrapper.
func CanonicalizePayload(payload map[string]any) string {
	fields := make(map[string]string, len(payload))
	for k, val := range payload {
		if k == "sign" || k == "sign_type" {
			continue
		}
		if val == nil {
			fields[k] = ""
			continue
		}
		if isScalar(val) {
			fields[k] = stringify(val)
			continue
		}
		enc, err := json.Marshal(val)
		if err != nil {
			continue
		}
		fields[k] = string(enc)
	}
	return joinSorted(fields)
}

// signatureCandidates enumerates the plausible decodings of a transported
// base64 signature, in order of likelihood, each with and without padding
// correction
func signatureCandidates(sig string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		for _, variant := range []string{s, padBase64(s)} {
			if _, dup := seen[variant]; dup {
				continue
			}
			seen[variant] = struct{}{}
			out = append(out, variant)
		}
	}

	add(sig)
	add(strings.ReplaceAll(sig, " ", "+"))
	if unescaped, err := url.QueryUnescape(sig); err == nil {
		add(unescaped)
		add(strings.ReplaceAll(unescaped, " ", "+"))
	}
	return out
}

func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		return s + strings.Repeat("=", 4-rem)
	}
	return s
}
