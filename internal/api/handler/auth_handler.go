package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// AuthHandler exposes the session store under /session.
type AuthHandler struct {
	sessions ports.SessionService
	log      zerolog.Logger
}

func NewAuthHandler(sessions ports.SessionService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}

type sessionResponse struct {
	Status  domain.SessionStatus  `json:"status"`
	User    *domain.User          `json:"user,omitempty"`
	Demoted domain.DemotionReason `json:"demoted,omitempty"`
	Loading bool                  `json:"loading"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{Status: s.Status, User: s.User, Demoted: s.Demoted, Loading: s.Status.Loading()}
}

// Session handles GET /session. It never blocks on revalidation.
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.sessions.Snapshot()))
}

// Login handles POST /session/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		// Same local check the login form runs; it carries the user-facing hint.
		_, err := h.sessions.Authenticate(c.Request().Context(), req.Email, req.Password)
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	snap, err := h.sessions.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

// Logout handles POST /session/logout. The session is cleared even when the
// token store fails; that failure is only logged.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Msg("logout left a persisted token behind")
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.sessions.Snapshot()))
}

// Profile handles PUT /session/profile.
func (h *AuthHandler) Profile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.sessions.UpdateProfile(c.Request().Context(), domain.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
