package ports

import (
	"context"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// SessionService is the session store as seen by front ends.
type SessionService interface {
	Initialize(ctx context.Context) domain.Session
	Authenticate(ctx context.Context, email, password string) (domain.Session, error)
	Login(ctx context.Context, token string, user *domain.User) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error)
	CurrentUser() (*domain.User, bool)
	Snapshot() domain.Session
	Token() string
}
