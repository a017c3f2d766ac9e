package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/core/ports"
)

// AccessChecker resolves whether a user's role grants a module.
type AccessChecker interface {
	HasAccess(ctx context.Context, userID, module string) (*ports.AccessDecision, error)
}

// RequireModule rejects callers whose role does not include module. It must
// run after Auth.
func RequireModule(checker AccessChecker, module string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(UserIDKey).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please provide token")
			}

			decision, err := checker.HasAccess(c.Request().Context(), userID, module)
			if err != nil {
				return err
			}
			if !decision.HasAccess {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}
