package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{domain.Invalid("roleName required"), http.StatusBadRequest, "roleName required"},
		{fmt.Errorf("wrapped: %w", domain.Invalid("modules required")), http.StatusBadRequest, "modules required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{domain.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "Invalid token, Please provide valid token"},
		{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{fmt.Errorf("lookup: %w", domain.ErrRoleNotFound), http.StatusNotFound, "Role not found"},
		{domain.ErrUserExists, http.StatusConflict, "User already exists"},
		{domain.ErrRoleExists, http.StatusConflict, "Role already exists"},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many failed login attempts, please try again later."},
		{echo.NewHTTPError(http.StatusForbidden, "Forbidden"), http.StatusForbidden, "Forbidden"},
		{echo.ErrNotFound, http.StatusNotFound, "Not Found"},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			want := fmt.Sprintf("{\"message\":%q}\n", tc.message)
			if rec.Body.String() != want {
				t.Fatalf("expected body %s, got %s", want, rec.Body.String())
			}
		})
	}
}

func TestHTTPErrorHandler_LogsUnexpected(t *testing.T) {
	var logs bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/users", nil), rec)

	NewHTTPErrorHandler(zerolog.New(&logs))(errors.New("dial tcp: refused"), c)

	if !bytes.Contains(logs.Bytes(), []byte("dial tcp: refused")) {
		t.Fatalf("cause should be logged: %s", logs.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("dial tcp")) {
		t.Fatalf("cause leaked to client: %s", rec.Body.String())
	}
}

func TestHTTPErrorHandler_SkipsCommittedAndHead(t *testing.T) {
	e := echo.New()
	handler := NewHTTPErrorHandler(zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusAccepted)
	handler(domain.ErrUserNotFound, c)
	if rec.Code != http.StatusAccepted || rec.Body.Len() != 0 {
		t.Fatalf("committed response must not be rewritten: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)
	handler(domain.ErrUserNotFound, c)
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("HEAD should get a bare status: %d %q", rec.Code, rec.Body.String())
	}
}
