package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/pumpup/gym-edge/internal/config"     // rate limit configuration
	"github.com/pumpup/gym-edge/internal/handler"    // import the handlers that implement business logic
	"github.com/pumpup/gym-edge/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterDevice registers the reader-facing endpoints.  Device
// credentials are validated inside the handlers themselves (the
// device_id lives in the JSON body, so header-only middleware cannot
// authenticate these routes), and no rate limiting is applied: a
// legitimate rush of scans at opening time must never be throttled.
func RegisterDevice(e *echo.Echo, access *handler.AccessHandler, equip *handler.EquipmentHandler) {
	g := e.Group("/v1")
	// Door endpoints: the scan toggle and the occupancy count.
	g.POST("/access/nfc-scan", access.NFCScan)
	g.GET("/access/occupancy", access.Occupancy)
	// Machine endpoints: session lifecycle and heart-rate samples.
	g.POST("/equipment/session/start", equip.StartSession)
	g.POST("/equipment/session/end", equip.EndSession)
	g.POST("/equipment/heart-rate", equip.RecordHeartRate)
}

// RegisterAuth registers the staff authentication routes and applies the
// redis token bucket in front of them.  Unauthenticated operations live
// under /v1/auth; the protected /v1/me endpoint sits behind JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	// The password-bearing surface is the only part of the API that gets
	// rate limited.  When redis is down the bucket degrades to a
	// pass-through rather than blocking logins.
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh_token in the body (single session)
	// or a bearer token (all sessions); it does not require the JWT
	// middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAdmin registers the staff-only member and equipment
// registration endpoints behind the JWT middleware.
func RegisterAdmin(e *echo.Echo, adm *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/members", adm.CreateMember)
	g.GET("/members", adm.ListMembers)
	g.POST("/equipment", adm.CreateEquipment)
	g.GET("/equipment", adm.ListEquipment)
}
