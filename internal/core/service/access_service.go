package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// AccessService owns roles, their module sets, and permission checks.
type AccessService struct {
	users ports.UserRepository
	roles ports.RoleRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewAccessService(users ports.UserRepository, roles ports.RoleRepository, log zerolog.Logger) *AccessService {
	return &AccessService{users: users, roles: roles, log: log, now: time.Now}
}

// HasAccess resolves the user's role and reports whether module is in its set.
// Users without a role, or whose role was deleted, are denied.
func (s *AccessService) HasAccess(ctx context.Context, userID, module string) (*ports.AccessDecision, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		return nil, domain.Invalid("module query param required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("has access: %w", err)
	}

	decision := &ports.AccessDecision{Module: module}
	if user.RoleID == "" {
		return decision, nil
	}

	role, err := s.roles.FindByID(ctx, user.RoleID)
	if errors.Is(err, domain.ErrRoleNotFound) {
		s.log.Debug().Str("user_id", user.ID).Str("role_id", user.RoleID).Msg("user references a missing role")
		return decision, nil
	}
	if err != nil {
		return nil, fmt.Errorf("has access: %w", err)
	}

	name := role.Name
	decision.RoleName = &name
	decision.HasAccess = role.Grants(module)
	return decision, nil
}

func (s *AccessService) CreateRole(ctx context.Context, in ports.CreateRoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("roleName required")
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	role := &domain.Role{
		Name:          name,
		AccessModules: domain.NewModuleSet(in.Modules...),
		Active:        active,
		CreatedAt:     s.now().UTC(),
	}

	created, err := s.roles.Create(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.log.Info().Str("role_id", created.ID).Str("role", created.Name).Int("modules", created.AccessModules.Len()).Msg("role created")
	return created, nil
}

func (s *AccessService) ListRoles(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.Role], error) {
	page, limit := normalizePage(in.Page, in.Limit)

	items, total, err := s.roles.List(ctx, ports.ListFilter{
		Search: strings.TrimSpace(in.Query),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return &ports.Page[*domain.Role]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *AccessService) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// UpdateRole applies a partial update. Supplied modules replace the stored
// set; use AddModules/RemoveModules to merge.
func (s *AccessService) UpdateRole(ctx context.Context, id string, in ports.UpdateRoleInput) (*domain.Role, error) {
	var changes domain.RoleChanges

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("roleName cannot be empty")
		}
		changes.Name = &name
	}
	if in.Modules != nil {
		changes.AccessModules = domain.NewModuleSet(*in.Modules...)
	}
	changes.Active = in.Active

	if changes.IsEmpty() {
		return s.GetRole(ctx, id)
	}

	role, err := s.roles.Update(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.log.Info().Str("role_id", role.ID).Bool("modules_replaced", changes.AccessModules != nil).Msg("role updated")
	return role, nil
}

// DeleteRole removes the role only. Users still referencing it lose all
// access until reassigned.
func (s *AccessService) DeleteRole(ctx context.Context, id string) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	s.log.Info().Str("role_id", id).Msg("role deleted")
	return nil
}

// AddModules merges modules into the role's set (idempotent).
func (s *AccessService) AddModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	set := domain.NewModuleSet(modules...)
	if set.Len() == 0 {
		return nil, domain.Invalid("modules required")
	}

	role, err := s.roles.AddModules(ctx, id, set.Sorted())
	if err != nil {
		return nil, fmt.Errorf("add modules: %w", err)
	}
	return role, nil
}

// RemoveModules subtracts modules from the role's set. Non-members are ignored.
func (s *AccessService) RemoveModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	set := domain.NewModuleSet(modules...)
	if set.Len() == 0 {
		return nil, domain.Invalid("modules required")
	}

	role, err := s.roles.RemoveModules(ctx, id, set.Sorted())
	if err != nil {
		return nil, fmt.Errorf("remove modules: %w", err)
	}
	return role, nil
}
