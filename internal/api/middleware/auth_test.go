package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.Claims
	err    error
	got    string
}

func (s *stubVerifier) Verify(token string) (*domain.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func runAuth(t *testing.T, verifier TokenVerifier, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(verifier)(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, c.Get(UserIDKey).(string)+"/"+c.Get(UsernameKey).(string))
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &stubVerifier{claims: &domain.Claims{UserID: "u1", Username: "alice"}}

	rec, called := runAuth(t, verifier, "Bearer abc.def.ghi")

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "u1/alice" {
		t.Fatalf("identity not injected: %q", rec.Body.String())
	}
	if verifier.got != "abc.def.ghi" {
		t.Fatalf("verifier got %q", verifier.got)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	verifier := &stubVerifier{claims: &domain.Claims{UserID: "u1", Username: "alice"}}

	_, called := runAuth(t, verifier, "bearer abc")
	if !called {
		t.Fatalf("lowercase scheme should be accepted")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		err     error
		message string
	}{
		{"missing header", "", nil, "Please provide token"},
		{"wrong scheme", "Token abc", nil, "Please provide token"},
		{"empty token", "Bearer   ", nil, "Please provide token"},
		{"invalid token", "Bearer not-a-token", domain.ErrInvalidToken, "Invalid token, Please provide valid token"},
		{"expired token", "Bearer old", domain.ErrTokenExpired, "Token expired"},
		{"unexpected error", "Bearer x", errors.New("boom"), "Invalid token, Please provide valid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &stubVerifier{err: tc.err}
			if tc.err == nil {
				verifier.claims = &domain.Claims{UserID: "u1"}
			}

			rec, called := runAuth(t, verifier, tc.header)

			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.message) {
				t.Fatalf("expected message %q, got %s", tc.message, rec.Body.String())
			}
		})
	}
}
