// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// Deps collects what the routes need.
type Deps struct {
	JWTSecret string
	Auth      *handler.AuthHandler
	Bookings  *handler.BookingHandler
	Redis     *redis.Client // nil disables rate limiting and caching
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// profile endpoints under /v1.
func RegisterAuth(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	g := e.Group("/v1/auth", limit)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/refresh-access", d.Auth.RefreshAccess)
	g.POST("/logout", d.Auth.Logout)

	p := protected(e, d)
	p.GET("/me", d.Auth.Me)
	p.PUT("/me", d.Auth.UpdateProfile)
}

// RegisterBookings registers the room, availability and booking routes.
func RegisterBookings(e *echo.Echo, d Deps) {
	// room list only changes on redeploy
	e.GET("/v1/rooms", d.Bookings.Rooms, middleware.NewRedisCache(d.Cache, d.Redis))

	p := protected(e, d)
	p.GET("/availability", d.Bookings.Availability)
	p.POST("/check-availability", d.Bookings.CheckAvailability)

	p.POST("/bookings", d.Bookings.Create)
	p.POST("/bookings/cancel", d.Bookings.Cancel)
	p.GET("/bookings", d.Bookings.List)
	p.GET("/bookings/:id", d.Bookings.Get)
	p.PUT("/bookings/:id", d.Bookings.Update)
	p.DELETE("/bookings/:id", d.Bookings.CancelByID)
	p.GET("/my-bookings", d.Bookings.Mine)
}

// protected returns a /v1 group requiring a valid access token.  The rate
// limiter runs after JWTAuth so it can key on the user.
func protected(e *echo.Echo, d Deps) *echo.Group {
	return e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(handler.RoleUser, handler.RoleAdmin),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)
}
