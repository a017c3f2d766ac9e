package domain

import "time"

// Role is a named bundle of module grants assignable to users.
type Role struct {
	ID            string
	Name          string
	AccessModules ModuleSet
	Active        bool
	CreatedAt     time.Time
}

// Grants reports whether the role's module set contains module.
// A nil role grants nothing.
func (r *Role) Grants(module string) bool {
	if r == nil {
		return false
	}
	return r.AccessModules.Has(module)
}

// RoleChanges is a partial role update. Nil fields are left untouched;
// a non-nil AccessModules replaces the stored set.
type RoleChanges struct {
	Name          *string
	AccessModules ModuleSet
	Active        *bool
}

func (c RoleChanges) IsEmpty() bool {
	return c.Name == nil && c.AccessModules == nil && c.Active == nil
}
