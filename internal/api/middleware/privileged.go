package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePrivileged rejects sessions without the privileged flag. It must run
// after Auth.
func RequirePrivileged() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if privileged, _ := c.Get(ContextKeyIsPrivileged).(bool); !privileged {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
			}
			return next(c)
		}
	}
}
