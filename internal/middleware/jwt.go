package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	authpkg "github.com/octobees/prospecting-crm/api/internal/auth"
)

// JWT validates bearer tokens and stores the caller identity in the request context.
func JWT(manager *authpkg.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return deny(c, http.StatusUnauthorized, "missing or invalid authorization header")
			}

			claims, err := manager.ParseToken(token)
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			actx, err := authpkg.FromClaims(claims)
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(ContextKeyAuth, actx)
			c.Set(ContextKeyUserID, actx.UserID.String())
			c.Set(ContextKeyUserEmail, actx.Email)
			c.Set(ContextKeyUserRole, actx.Role)
			c.Set(ContextKeyLogger, LoggerFromContext(c).With(zap.String("user_id", actx.UserID.String())))

			return next(c)
		}
	}
}

// bearerToken reads the Authorization header, falling back to the access_token
// query parameter used by browser WebSocket clients.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
