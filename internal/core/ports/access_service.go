package ports

import (
	"context"

	"github.com/accessgate/rbac-service/internal/core/domain"
)

// ListInput carries the query string parameters of list endpoints.
type ListInput struct {
	Query string
	Page  int
	Limit int
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type CreateRoleInput struct {
	Name    string
	Modules []string
	Active  *bool // defaults to true
}

// UpdateRoleInput is a partial role update. A non-nil Modules replaces the
// whole set; it is not merged with the stored one.
type UpdateRoleInput struct {
	Name    *string
	Modules *[]string
	Active  *bool
}

// AccessDecision answers "can user X access module Y".
type AccessDecision struct {
	HasAccess bool
	Module    string
	RoleName  *string // nil when the user has no (existing) role
}

type AccessService interface {
	HasAccess(ctx context.Context, userID, module string) (*AccessDecision, error)
	CreateRole(ctx context.Context, in CreateRoleInput) (*domain.Role, error)
	ListRoles(ctx context.Context, in ListInput) (*Page[*domain.Role], error)
	GetRole(ctx context.Context, id string) (*domain.Role, error)
	UpdateRole(ctx context.Context, id string, in UpdateRoleInput) (*domain.Role, error)
	DeleteRole(ctx context.Context, id string) error
	AddModules(ctx context.Context, id string, modules []string) (*domain.Role, error)
	RemoveModules(ctx context.Context, id string, modules []string) (*domain.Role, error)
}
