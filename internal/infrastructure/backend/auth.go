package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// Auth implements ports.AuthGateway over auth/login and auth/profile.
type Auth struct {
	c *Client
}

var _ ports.AuthGateway = (*Auth)(nil)

func NewAuth(c *Client) *Auth { return &Auth{c: c} }

func (a *Auth) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}
	raw, err := a.c.do(ctx, request{
		method:      http.MethodPost,
		path:        "auth/login",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	})
	if err != nil {
		return nil, err
	}
	var res ports.LoginResult
	if ok, err := decode(raw, &res); err != nil || !ok {
		return nil, fmt.Errorf("login: %w", domain.ErrMalformedResponse)
	}
	return &res, nil
}

// Profile fetches the profile token belongs to. An empty or undecodable body
// is a malformed response.
func (a *Auth) Profile(ctx context.Context, token string) (*domain.User, error) {
	raw, err := a.c.do(ctx, request{method: http.MethodGet, path: "auth/profile", bearer: token})
	if err != nil {
		return nil, err
	}
	var u domain.User
	ok, err := decode(raw, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("profile: empty body: %w", domain.ErrMalformedResponse)
	}
	return &u, nil
}

func (a *Auth) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	raw, err := a.c.do(ctx, request{
		method:      http.MethodPut,
		path:        "auth/profile",
		body:        body,
		contentType: "application/json",
		bearer:      token,
	})
	if err != nil {
		return nil, err
	}
	var u domain.User
	ok, err := decode(raw, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("update profile: empty body: %w", domain.ErrMalformedResponse)
	}
	return &u, nil
}
