package ports

import (
	"context"
)

// Secret represents a secret value with metadata
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretManager retrieves credential material (app secret, RSA PEM keys).
// Backed by the local filesystem in development, Vault or AWS Secrets
// Manager in production.
type SecretManager interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
