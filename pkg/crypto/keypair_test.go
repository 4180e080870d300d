package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyPSS(t *testing.T) {
	keys, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	privateKey, err := ParsePrivateKey(keys.PrivateKeyPEM)
	require.NoError(t, err)
	publicKey, err := ParsePublicKey(keys.PublicKeyPEM)
	require.NoError(t, err)

	message := []byte("appid=a&merch_order_id=1&total_amount=10.00")
	sig, err := SignPSS(privateKey, message)
	require.NoError(t, err)

	assert.True(t, VerifyPSS(publicKey, message, sig))
	assert.False(t, VerifyPSS(publicKey, []byte("tampered"), sig))
	assert.False(t, VerifyPSS(publicKey, message, sig[:len(sig)-1]))
}

func TestSignPSS_NotDeterministic(t *testing.T) {
	keys, err := GenerateRSAKeyPair()
	require.NoError(t, err)
	privateKey, err := ParsePrivateKey(keys.PrivateKeyPEM)
	require.NoError(t, err)
	publicKey, err := ParsePublicKey(keys.PublicKeyPEM)
	require.NoError(t, err)

	message := []byte("same message")
	a, err := SignPSS(privateKey, message)
	require.NoError(t, err)
	b, err := SignPSS(privateKey, message)
	require.NoError(t, err)

	// PSS is randomized: two signatures differ but both verify
	assert.NotEqual(t, a, b)
	assert.True(t, VerifyPSS(publicKey, message, a))
	assert.True(t, VerifyPSS(publicKey, message, b))
}

func TestParseKeys_Rejects(t *testing.T) {
	_, err := ParsePrivateKey("not pem")
	assert.Error(t, err)
	_, err = ParsePublicKey("not pem")
	assert.Error(t, err)
}
