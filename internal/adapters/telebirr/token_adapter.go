package telebirr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/addispay/telebirr-gateway/internal/domain/ports"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
	"github.com/addispay/telebirr-gateway/pkg/observability"
	"github.com/addispay/telebirr-gateway/pkg/timeutil"
)

const (
	// tokens are refreshed this long before the provider-announced expiry
	tokenSafetyMargin = 5 * time.Minute
	// assumed lifetime when the provider omits or mangles expirationDate
	tokenDefaultTTL = time.Hour
)

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// tokenAdapter acquires and caches fabric bearer tokens. The cache is
// keyed by a hash of the fabric app id so multiple merchant identities can
// share one adapter; a per-key mutex prevents duplicate concurrent
// fetches for the same identity.
type tokenAdapter struct {
	client *Client
	logger *zap.Logger

	mu     sync.Mutex
	tokens map[string]cachedToken
	locks  map[string]*sync.Mutex

	now func() time.Time
}

// NewTokenAdapter creates a caching token provider backed by the gateway's
// token endpoint
func NewTokenAdapter(client *Client, logger *zap.Logger) ports.TokenProvider {
	return &tokenAdapter{
		client: client,
		logger: logger,
		tokens: make(map[string]cachedToken),
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// Token returns a cached non-expired token unless forceRefresh is set or
// the cache entry is absent/expired, in which case a fresh token is
// fetched from the gateway.
func (a *tokenAdapter) Token(ctx context.Context, forceRefresh bool) (string, error) {
	key := cacheKey(a.client.Config().FabricAppID)

	keyLock := a.lockFor(key)
	keyLock.Lock()
	defer keyLock.Unlock()

	if forceRefresh {
		observability.RecordTokenCacheMiss("forced")
	} else {
		tok, miss := a.lookup(key)
		if miss == "" {
			observability.RecordTokenCacheHit()
			return tok, nil
		}
		observability.RecordTokenCacheMiss(miss)
	}

	tok, expiresAt, err := a.fetch(ctx)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.tokens[key] = cachedToken{value: tok, expiresAt: expiresAt}
	a.mu.Unlock()

	a.logger.Info("Fabric token refreshed",
		zap.Time("expires_at", expiresAt),
		zap.Bool("forced", forceRefresh),
	)
	return tok, nil
}

func (a *tokenAdapter) lockFor(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// lookup returns the cached token for key, or a non-empty miss reason
func (a *tokenAdapter) lookup(key string) (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tok, ok := a.tokens[key]
	if !ok {
		return "", "not_found"
	}
	if !a.now().Before(tok.expiresAt) {
		return "", "expired"
	}
	return tok.value, ""
}

func (a *tokenAdapter) fetch(ctx context.Context) (string, time.Time, error) {
	body := map[string]string{"appSecret": a.client.Config().AppSecret}

	resp, err := a.client.PostJSON(ctx, "token", tokenPath, "", body)
	if err != nil {
		if apiErr, ok := err.(*apperrors.APIError); ok {
			return "", time.Time{}, apperrors.NewAuthError("token acquisition failed", apiErr.GatewayMessage)
		}
		return "", time.Time{}, apperrors.NewAuthError("token acquisition failed", err.Error())
	}

	// some gateway versions nest the token fields under biz_content
	token := resp.Token
	if token == "" {
		token, _ = resp.BizContent["token"].(string)
	}
	if token == "" {
		return "", time.Time{}, apperrors.NewAuthError("token missing from gateway response", resp.ErrorMessage())
	}

	expiration := resp.Expiration
	if expiration == "" {
		expiration, _ = resp.BizContent["expirationDate"].(string)
	}

	expiresAt := a.now().Add(tokenDefaultTTL)
	if expiration != "" {
		if t, err := timeutil.ParseCompact(expiration); err == nil {
			expiresAt = t.Add(-tokenSafetyMargin)
		}
	}
	return token, expiresAt, nil
}

func cacheKey(fabricAppID string) string {
	sum := sha256.Sum256([]byte(fabricAppID))
	return hex.EncodeToString(sum[:])
}
