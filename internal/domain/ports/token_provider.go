package ports

import (
	"context"
)

// TokenProvider yields a valid fabric bearer token for gateway calls.
// Implementations cache tokens and refresh them before expiry; forceRefresh
// bypasses the cache.
type TokenProvider interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}
