package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/api/middleware"
	"github.com/agridynamic/admin-console/internal/core/domain"
)

// ctxActor returns the email of the user the admin gate let through, for
// audit fields in logs. Routes outside the gate get "".
func ctxActor(c echo.Context) string {
	u, _ := c.Get(middleware.UserKey).(*domain.User)
	if u == nil {
		return ""
	}
	return u.Email
}
