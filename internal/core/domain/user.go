package domain

import "time"

// User models an account that can authenticate and, through its role,
// be granted access modules.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	RoleID       string // empty when no role is assigned
	Active       bool
	CreatedAt    time.Time

	// Role is the resolved role on read paths. Nil when RoleID is empty
	// or references a role that no longer exists.
	Role *Role
}

// UserChanges is a partial user update as persisted. Username and email are
// immutable and therefore absent. A non-nil RoleID set to "" clears the role.
type UserChanges struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
	RoleID       *string
	Active       *bool
}

func (c UserChanges) IsEmpty() bool {
	return c.FirstName == nil && c.LastName == nil && c.PasswordHash == nil &&
		c.RoleID == nil && c.Active == nil
}

// UserFilter selects users for bulk mutations. Criteria are ANDed; an empty
// filter matches every user. A nil list is unset, while a non-nil empty list
// matches no user.
type UserFilter struct {
	IDs       []string
	Usernames []string
	Emails    []string
	RoleID    string
	Active    *bool
}

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
