package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// RequireAdmin rejects users without the admin flag once enabled. It must run
// after AdminGate.
func RequireAdmin(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			user, _ := c.Get(UserKey).(*domain.User)
			if user == nil || !user.IsAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
