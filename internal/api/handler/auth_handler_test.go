package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

type stubSessionService struct {
	snap           domain.Session
	authenticateFn func(ctx context.Context, email, password string) (domain.Session, error)
	updateFn       func(ctx context.Context, u domain.ProfileUpdate) (*domain.User, error)
	logoutErr      error
	logoutCalls    int
}

func (s *stubSessionService) Initialize(context.Context) domain.Session { return s.snap }
func (s *stubSessionService) Authenticate(ctx context.Context, email, password string) (domain.Session, error) {
	return s.authenticateFn(ctx, email, password)
}
func (s *stubSessionService) Login(context.Context, string, *domain.User) error { return nil }
func (s *stubSessionService) Logout(context.Context) error {
	s.logoutCalls++
	s.snap = domain.Session{Status: domain.SessionAnonymous}
	return s.logoutErr
}
func (s *stubSessionService) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) (*domain.User, error) {
	return s.updateFn(ctx, u)
}
func (s *stubSessionService) CurrentUser() (*domain.User, bool) { return s.snap.User, s.snap.User != nil }
func (s *stubSessionService) Snapshot() domain.Session          { return s.snap }
func (s *stubSessionService) Token() string                     { return s.snap.Token }

func newAuthContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var admin = &domain.User{ID: "u1", Name: "Admin", Email: "admin@example.org"}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubSessionService{
		authenticateFn: func(_ context.Context, email, password string) (domain.Session, error) {
			if email != "admin@example.org" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return domain.Session{Status: domain.SessionAuthenticated, Token: "tok", User: admin}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())
	c, rec := newAuthContext(http.MethodPost, "/session/login", `{"email":"admin@example.org","password":"secret"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "tok") {
		t.Fatalf("token must never be sent to the client: %s", rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "authenticated" {
		t.Fatalf("unexpected status %v", resp["status"])
	}
}

func TestAuthHandler_Login_EmptyPassword(t *testing.T) {
	stub := &stubSessionService{
		authenticateFn: func(_ context.Context, _, password string) (domain.Session, error) {
			if password != "" {
				t.Fatalf("expected the empty password to reach the local check")
			}
			return domain.Session{Status: domain.SessionAnonymous}, domain.NewValidationError("please enter both email and password", "password")
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())
	c, _ := newAuthContext(http.MethodPost, "/session/login", `{"email":"admin@example.org","password":""}`)

	if err := h.Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_Login_BadEmail(t *testing.T) {
	stub := &stubSessionService{
		authenticateFn: func(context.Context, string, string) (domain.Session, error) {
			t.Fatalf("backend must not be called")
			return domain.Session{}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())
	c, _ := newAuthContext(http.MethodPost, "/session/login", `{"email":"nope","password":"x"}`)

	err := h.Login(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0] != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
}

func TestAuthHandler_Logout_StoreFailureStillClears(t *testing.T) {
	stub := &stubSessionService{
		snap:      domain.Session{Status: domain.SessionAuthenticated, Token: "tok", User: admin},
		logoutErr: errors.New("disk full"),
	}
	h := NewAuthHandler(stub, zerolog.Nop())
	c, rec := newAuthContext(http.MethodPost, "/session/logout", "")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.logoutCalls != 1 || !strings.Contains(rec.Body.String(), `"anonymous"`) {
		t.Fatalf("expected anonymous session, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Session_Loading(t *testing.T) {
	h := NewAuthHandler(&stubSessionService{snap: domain.Session{Status: domain.SessionValidating, Token: "tok"}}, zerolog.Nop())
	c, rec := newAuthContext(http.MethodGet, "/session", "")

	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"loading":true`) {
		t.Fatalf("expected loading flag, got %s", rec.Body.String())
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	stub := &stubSessionService{
		updateFn: func(_ context.Context, u domain.ProfileUpdate) (*domain.User, error) {
			return &domain.User{ID: "u1", Name: u.Name, Email: u.Email}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newAuthContext(http.MethodPut, "/session/profile", `{"name":"Ada","email":"ada@example.org"}`)
	if err := h.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"Ada"`) {
		t.Fatalf("expected updated user, got %s", rec.Body.String())
	}

	c, _ = newAuthContext(http.MethodPut, "/session/profile", `{"name":"Ada","email":"ada@example.org","password":"123"}`)
	if err := h.Profile(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("short password must be rejected, got %v", err)
	}
}
