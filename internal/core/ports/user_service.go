package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// UserPatch is a partial user update as received from clients. Password is
// plaintext here and hashed by the service. RoleID set to "" clears the role.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Password  *string
	RoleID    *string
	Active    *bool
}

func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Password == nil &&
		p.RoleID == nil && p.Active == nil
}

// UserService covers account administration beyond signup.
type UserService interface {
	Create(ctx context.Context, in RegisterInput) (*domain.User, error)
	List(ctx context.Context, in ListInput) (*Page[*domain.User], error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
