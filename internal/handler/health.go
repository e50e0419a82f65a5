// Package handler contains the HTTP route implementations. Handlers parse
// and validate the request, call the repositories and translate failures
// onto the HTTP error taxonomy; authorization decisions happen in the
// middleware package or through its ownership helper.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
