package ports

import (
	"context"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// LoginResult is the body of a successful POST auth/login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthGateway is the backend's authentication surface.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Profile validates token by fetching the profile it belongs to.
	Profile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error)
}
