package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// RoleRepository persists roles and mutates their module sets atomically.
type RoleRepository interface {
	// Create reports a roleName collision as domain.ErrRoleExists.
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	// FindByIDs resolves many roles at once, keyed by id. Unknown ids are omitted.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Role, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Role, int64, error)
	Update(ctx context.Context, id string, changes domain.RoleChanges) (*domain.Role, error)
	// AddModules stores the union of the current set and modules.
	AddModules(ctx context.Context, id string, modules []string) (*domain.Role, error)
	// RemoveModules stores the current set minus modules.
	RemoveModules(ctx context.Context, id string, modules []string) (*domain.Role, error)
	Delete(ctx context.Context, id string) error
}
