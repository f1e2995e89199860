package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/buildops/defect-tracker/internal/core/ports"
)

// ctxActor extracts the identity injected by the Auth middleware and performs
// a fast-fail check before any service call: a zero user id or empty role
// means the middleware did not run, so the request cannot be attributed.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get("user_id").(int64)
	username, _ := c.Get("username").(string)
	role, _ := c.Get("role").(string)

	if userID == 0 || role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Actor{ID: userID, Username: username, Role: role}, nil
}
