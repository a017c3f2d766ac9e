package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// RegisterInput is the DTO for account creation, both self-service and admin.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	RoleID    string // optional
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login authenticates by username or email and returns a signed bearer token.
	Login(ctx context.Context, identifier, password string) (string, *domain.User, error)
	Verify(token string) (*domain.Claims, error)
}
