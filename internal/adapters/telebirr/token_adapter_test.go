package telebirr

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
	"github.com/addispay/telebirr-gateway/test/mocks"
)

// newTokenTestAdapter builds a token adapter over a counting mock transport
// with a controllable clock. The returned response body template receives
// the provider expiry in compact form.
func newTokenTestAdapter(t *testing.T, bodyFor func(now time.Time) string) (*tokenAdapter, *int, *time.Time) {
	t.Helper()

	current := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	fetches := 0

	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		fetches++
		return mocks.JSONResponse(200, bodyFor(current)), nil
	})
	client := NewClient(&Config{
		BaseURL:     "https://fabric.test/ammapi",
		FabricAppID: "fabric-app",
		AppSecret:   "shhh",
	}, httpClient, nil, zap.NewNop())

	adapter := NewTokenAdapter(client, zap.NewNop()).(*tokenAdapter)
	adapter.now = func() time.Time { return current }
	return adapter, &fetches, &current
}

func TestToken_CachedUntilExpiry(t *testing.T) {
	adapter, fetches, current := newTokenTestAdapter(t, func(now time.Time) string {
		exp := now.Add(30 * time.Minute).Format("20060102150405")
		return fmt.Sprintf(`{"token":"TOK","expirationDate":"%s"}`, exp)
	})
	ctx := context.Background()

	tok, err := adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "TOK", tok)
	assert.Equal(t, 1, *fetches)

	// within the cache window: no second fetch
	_, err = adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, *fetches)

	// expiry minus the safety margin is 25 minutes out; past that the
	// cached token is considered stale
	*current = current.Add(26 * time.Minute)
	_, err = adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, *fetches)
}

func TestToken_ForceRefresh(t *testing.T) {
	adapter, fetches, _ := newTokenTestAdapter(t, func(now time.Time) string {
		exp := now.Add(time.Hour).Format("20060102150405")
		return fmt.Sprintf(`{"token":"TOK","expirationDate":"%s"}`, exp)
	})
	ctx := context.Background()

	_, err := adapter.Token(ctx, false)
	require.NoError(t, err)
	_, err = adapter.Token(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, *fetches)
}

func TestToken_NestedResponseFields(t *testing.T) {
	// older gateway versions return token and expirationDate under
	// biz_content; both must be honored
	adapter, fetches, current := newTokenTestAdapter(t, func(now time.Time) string {
		exp := now.Add(30 * time.Minute).Format("20060102150405")
		return fmt.Sprintf(`{"result":"SUCCESS","code":"0","biz_content":{"token":"NESTED","expirationDate":"%s"}}`, exp)
	})
	ctx := context.Background()

	tok, err := adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "NESTED", tok)

	// the nested expiry is applied, not the one-hour default: 26 minutes in
	// the cached token is already stale
	*current = current.Add(26 * time.Minute)
	_, err = adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, *fetches)
}

func TestToken_DefaultTTLWhenExpiryUnparsable(t *testing.T) {
	adapter, fetches, current := newTokenTestAdapter(t, func(now time.Time) string {
		return `{"token":"TOK","expirationDate":"soonish"}`
	})
	ctx := context.Background()

	_, err := adapter.Token(ctx, false)
	require.NoError(t, err)

	// still cached just inside the assumed one-hour lifetime
	*current = current.Add(59 * time.Minute)
	_, err = adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, *fetches)

	*current = current.Add(2 * time.Minute)
	_, err = adapter.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, *fetches)
}

func TestToken_MissingToken(t *testing.T) {
	adapter, _, _ := newTokenTestAdapter(t, func(now time.Time) string {
		return `{"result":"FAIL","code":"1","msg":"bad credentials"}`
	})

	_, err := adapter.Token(context.Background(), false)
	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.GatewayMessage, "bad credentials")
}
