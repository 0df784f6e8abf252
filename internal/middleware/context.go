package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/prospecting-crm/api/internal/auth"
)

const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
	ContextKeyAuth      = "auth"
	ContextKeyRequestID = "request_id"
	ContextKeyLogger    = "logger"
)

// AuthFromContext returns the caller identity stored by JWT. Requests that did
// not pass through JWT yield the anonymous zero value.
func AuthFromContext(c echo.Context) auth.Context {
	if actx, ok := c.Get(ContextKeyAuth).(auth.Context); ok {
		return actx
	}
	return auth.Context{}
}

// LoggerFromContext returns the request-scoped logger, or a no-op logger
// outside of the Logging middleware.
func LoggerFromContext(c echo.Context) *zap.Logger {
	if logger, ok := c.Get(ContextKeyLogger).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

func deny(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"status": "error", "message": message})
}
