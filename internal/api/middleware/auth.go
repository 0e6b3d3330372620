package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// UserKey is the echo context key holding the authenticated *domain.User.
const UserKey = "user"

// retryAfterSeconds is sent with 503 while the session is still being
// revalidated.
const retryAfterSeconds = "1"

// SessionReader is the read side of the session store.
type SessionReader interface {
	Snapshot() domain.Session
}

// AdminGate keeps admin routes behind an authenticated session. A session
// still loading gets 503 with Retry-After, never a redirect; an anonymous one
// is sent to the public site.
func AdminGate(sessions SessionReader, publicSiteURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := sessions.Snapshot()
			switch {
			case snap.Status.Loading():
				c.Response().Header().Set("Retry-After", retryAfterSeconds)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still loading")
			case !snap.Authenticated():
				return c.Redirect(http.StatusSeeOther, publicSiteURL)
			}

			c.Set(UserKey, snap.User)
			return next(c)
		}
	}
}
