package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, or 0.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(CtxUserID).(uint64) // zero value when unauthenticated
	return id
}

// Username returns the authenticated user's username, or "".
func Username(c echo.Context) string {
	u, _ := c.Get(CtxUsername).(string)
	return u
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// rateSubject names the caller for rate limit keys.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon" // anonymous callers are told apart by IP in most key strategies
}
