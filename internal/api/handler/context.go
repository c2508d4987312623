package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-core/internal/api/middleware"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// ctxCaller extracts the session injected by the Auth middleware. A missing
// user id means the middleware did not run, which is a 401.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get(middleware.ContextKeyUserID).(string)
	if userID == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	privileged, _ := c.Get(middleware.ContextKeyIsPrivileged).(bool)
	return ports.Caller{UserID: userID, IsPrivileged: privileged}, nil
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
