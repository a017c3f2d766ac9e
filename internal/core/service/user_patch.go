package service

import (
	"context"
	"strings"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// patchResolver turns a client patch into persisted changes: names are
// trimmed, the role reference is checked and the password is hashed.
type patchResolver struct {
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
}

func (r patchResolver) resolve(ctx context.Context, p ports.UserPatch) (domain.UserChanges, error) {
	var c domain.UserChanges

	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		if v == "" {
			return c, domain.Invalid("firstName cannot be empty")
		}
		c.FirstName = &v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		c.LastName = &v
	}
	if p.RoleID != nil {
		v := strings.TrimSpace(*p.RoleID)
		if v != "" {
			if err := ensureRoleExists(ctx, r.roles, v); err != nil {
				return c, err
			}
		}
		c.RoleID = &v
	}
	c.Active = p.Active

	if p.Password != nil {
		if *p.Password == "" {
			return c, domain.Invalid("password cannot be empty")
		}
		hash, err := r.hasher.Hash(*p.Password)
		if err != nil {
			return c, err
		}
		c.PasswordHash = &hash
	}

	return c, nil
}
