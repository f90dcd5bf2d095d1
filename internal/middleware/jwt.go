// Package middleware holds the Echo middleware shared by the API routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// JWTAuth validates a Bearer access token and stores the caller's id,
// username and role in the Echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization") // expected form: "Bearer <token>"
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer ")) // checks signature, exp and claims
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, id.UserID)     // read back with UserID(c)
			c.Set(CtxUsername, id.Username) // the PIC written on bookings
			c.Set(CtxRole, id.Role)
			return next(c) // authenticated; continue the chain
		}
	}
}
