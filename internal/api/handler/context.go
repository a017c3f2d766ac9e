package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/api/middleware"
	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// callerID returns the authenticated user id injected by the Auth middleware.
func callerID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.UserIDKey).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Please provide token")
	}
	return id, nil
}

// listInput reads page and limit plus the search term from searchParam.
// Missing values fall back to service defaults.
func listInput(c echo.Context, searchParam string) (ports.ListInput, error) {
	in := ports.ListInput{Query: c.QueryParam(searchParam)}

	var err error
	if raw := c.QueryParam("page"); raw != "" {
		if in.Page, err = strconv.Atoi(raw); err != nil {
			return in, domain.Invalid("page must be an integer")
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if in.Limit, err = strconv.Atoi(raw); err != nil {
			return in, domain.Invalid("limit must be an integer")
		}
	}
	return in, nil
}

// bindAndValidate decodes the body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return domain.Invalid("invalid payload")
	}
	return c.Validate(req)
}
