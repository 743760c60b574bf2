package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pumpup/gym-edge/internal/config"
	"github.com/pumpup/gym-edge/internal/service"
)

// authenticateDevice validates the device_id / X-API-Key pair carried by
// a reader request.  Missing credentials and a failed lookup both yield
// 401; unknown device and wrong key are indistinguishable.  When the
// request may not proceed it writes the response itself and returns
// ok=false together with the write result.  The config bypass flag
// skips the check entirely for trusted deployments.
func authenticateDevice(c echo.Context, cfg config.Config, auth *service.AuthService, deviceID string) (bool, error) {
	if cfg.DeviceAuthDisabled {
		return true, nil
	}
	apiKey := c.Request().Header.Get("X-API-Key")
	if deviceID == "" || apiKey == "" {
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing device_id or X-API-Key"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := auth.Authenticate(ctx, deviceID, apiKey)
	if err != nil {
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "device lookup failed"})
	}
	if !ok {
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid device_id or API key"})
	}
	return true, nil
}
