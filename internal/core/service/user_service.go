package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// UserService implements admin-side account management.
type UserService struct {
	auth    ports.AuthService
	users   ports.UserRepository
	roles   ports.RoleRepository
	patches patchResolver
	log     zerolog.Logger
}

func NewUserService(
	auth ports.AuthService,
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		auth:    auth,
		users:   users,
		roles:   roles,
		patches: patchResolver{roles: roles, hasher: hasher},
		log:     log,
	}
}

// Create registers a user on behalf of an administrator; the role is optional.
func (s *UserService) Create(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	user, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.User], error) {
	page, limit := normalizePage(in.Page, in.Limit)

	items, total, err := s.users.List(ctx, ports.ListFilter{
		Search: strings.TrimSpace(in.Query),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if err := s.populate(ctx, items...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.Page[*domain.User]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.populate(ctx, user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies a partial update; a new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	changes, err := s.patches.resolve(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	user, err := s.users.Update(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.populate(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Bool("password_changed", changes.PasswordHash != nil).Msg("user updated")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// populate resolves each user's role in one lookup. Dangling references
// leave Role nil.
func (s *UserService) populate(ctx context.Context, users ...*domain.User) error {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.RoleID == "" {
			continue
		}
		if _, ok := seen[u.RoleID]; ok {
			continue
		}
		seen[u.RoleID] = struct{}{}
		ids = append(ids, u.RoleID)
	}
	if len(ids) == 0 {
		return nil
	}

	roles, err := s.roles.FindByIDs(ctx, ids)
	if err != nil && !errors.Is(err, domain.ErrRoleNotFound) {
		return err
	}
	for _, u := range users {
		u.Role = roles[u.RoleID]
	}
	return nil
}
