package handler // HTTP handlers of the booking API

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness checks from load balancers and uptime monitors.
// It does not touch MySQL or Redis.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok") // plain text 200
}
