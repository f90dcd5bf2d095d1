package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

const ctxRequestID = "request_id"

// RequestID reuses the caller's X-Request-Id or mints one.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, id)
			c.Set(ctxRequestID, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id set by RequestID.
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(ctxRequestID).(string)
	return id
}

// AccessLog writes one logrus entry per request.
func AccessLog(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler settle the status before logging
				c.Error(err)
			}
			res := c.Response()
			fields := logrus.Fields{
				"request_id":  GetRequestID(c),
				"method":      c.Request().Method,
				"path":        c.Path(),
				"uri":         c.Request().RequestURI,
				"status":      res.Status,
				"bytes":       res.Size,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          c.RealIP(),
			}
			if u := Username(c); u != "" {
				fields["user"] = u
			}
			entry := log.WithFields(fields)
			switch {
			case res.Status >= 500:
				entry.Error("http request")
			case res.Status >= 400:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
			return nil
		}
	}
}
