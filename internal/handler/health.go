package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes from the gym's monitoring box.  It
// returns a plain text "ok" with HTTP 200 and touches no dependencies,
// so a degraded broker or redis never fails the probe.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
