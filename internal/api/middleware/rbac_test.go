package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

func runRequireAdmin(enabled bool, user *domain.User) (int, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(UserKey, user)
	}

	called := false
	_ = RequireAdmin(enabled)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec.Code, called
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	code, called := runRequireAdmin(true, &domain.User{ID: "u1", IsAdmin: true})
	if !called || code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAdmin_ForbidsNonAdmin(t *testing.T) {
	code, called := runRequireAdmin(true, &domain.User{ID: "u2"})
	if called || code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAdmin_Disabled(t *testing.T) {
	code, called := runRequireAdmin(false, &domain.User{ID: "u2"})
	if !called || code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", code)
	}
}
