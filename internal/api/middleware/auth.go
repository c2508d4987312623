package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-core/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyUserID       = "user_id"
	ContextKeySessionID    = "session_id"
	ContextKeyIsPrivileged = "is_privileged"
)

// Auth verifies the bearer access token and injects the session into context.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			session, err := auth.CheckAccess(c.Request().Context(), parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyUserID, session.UserID)
			c.Set(ContextKeySessionID, session.SessionID)
			c.Set(ContextKeyIsPrivileged, session.IsPrivileged)

			return next(c)
		}
	}
}
