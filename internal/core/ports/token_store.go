package ports

import "context"

// TokenStore persists the single session token under a fixed key.
type TokenStore interface {
	// Load returns "" with a nil error when no token is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
