package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// ListFilter carries search and pagination parameters for list queries.
type ListFilter struct {
	Search string // optional: case-insensitive substring match
	Page   int    // 1-based
	Limit  int
}

// UserRepository persists users. Uniqueness of username and email is enforced
// by the store; Create reports a violation as domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIdentifier matches identifier against username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// List matches Search against username, email, first and last name.
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, id string, changes domain.UserChanges) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// UpdateMany applies the same changes to every user matching filter in a single write.
	UpdateMany(ctx context.Context, filter domain.UserFilter, changes domain.UserChanges) (*BulkResult, error)
}
