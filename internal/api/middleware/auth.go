package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// Context keys set by Auth.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// TokenVerifier is the slice of the auth service the middleware needs.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects the caller's identity into context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please provide token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please provide token")
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if errors.Is(err, domain.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token, Please provide valid token")
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(UsernameKey, claims.Username)

			return next(c)
		}
	}
}
