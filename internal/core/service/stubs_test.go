package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*domain.User
	failOn func(domain.UserFilter) error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%d", r.seq)
	r.byID[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, u := range r.byID {
		if f.Search == "" || strings.Contains(strings.ToLower(u.Username+" "+u.Email+" "+u.FirstName+" "+u.LastName), strings.ToLower(f.Search)) {
			all = append(all, cloneUser(u))
		}
	}
	slices.SortFunc(all, func(a, b *domain.User) int { return strings.Compare(a.ID, b.ID) })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+f.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func applyUserChanges(u *domain.User, c domain.UserChanges) {
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.RoleID != nil {
		u.RoleID = *c.RoleID
	}
	if c.Active != nil {
		u.Active = *c.Active
	}
}

func (r *stubUserRepo) Update(_ context.Context, id string, c domain.UserChanges) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	applyUserChanges(u, c)
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func matchesFilter(u *domain.User, f domain.UserFilter) bool {
	if f.IDs != nil && !slices.Contains(f.IDs, u.ID) {
		return false
	}
	if f.Usernames != nil && !slices.Contains(f.Usernames, u.Username) {
		return false
	}
	if f.Emails != nil && !slices.Contains(f.Emails, u.Email) {
		return false
	}
	if f.RoleID != "" && f.RoleID != u.RoleID {
		return false
	}
	if f.Active != nil && *f.Active != u.Active {
		return false
	}
	return true
}

func (r *stubUserRepo) UpdateMany(_ context.Context, f domain.UserFilter, c domain.UserChanges) (*ports.BulkResult, error) {
	if r.failOn != nil {
		if err := r.failOn(f); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res := &ports.BulkResult{}
	for _, u := range r.byID {
		if !matchesFilter(u, f) {
			continue
		}
		res.Matched++
		before := *u
		applyUserChanges(u, c)
		if before != *u {
			res.Modified++
		}
	}
	return res, nil
}

func (r *stubUserRepo) seed(u domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if u.ID == "" {
		u.ID = fmt.Sprintf("u%d", r.seq)
	}
	r.byID[u.ID] = &u
	return cloneUser(&u)
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

type stubRoleRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Role
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{byID: make(map[string]*domain.Role)}
}

func cloneRole(r *domain.Role) *domain.Role {
	c := *r
	c.AccessModules = domain.NewModuleSet(r.AccessModules.Sorted()...)
	return &c
}

func (r *stubRoleRepo) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Name == role.Name {
			return nil, domain.ErrRoleExists
		}
	}
	r.seq++
	c := cloneRole(role)
	c.ID = fmt.Sprintf("r%d", r.seq)
	r.byID[c.ID] = c
	return cloneRole(c), nil
}

func (r *stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return cloneRole(role), nil
}

func (r *stubRoleRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.Role, len(ids))
	for _, id := range ids {
		if role, ok := r.byID[id]; ok {
			out[id] = cloneRole(role)
		}
	}
	return out, nil
}

func (r *stubRoleRepo) List(_ context.Context, f ports.ListFilter) ([]*domain.Role, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.Role
	for _, role := range r.byID {
		if f.Search == "" || strings.Contains(strings.ToLower(role.Name), strings.ToLower(f.Search)) {
			all = append(all, cloneRole(role))
		}
	}
	slices.SortFunc(all, func(a, b *domain.Role) int { return strings.Compare(a.ID, b.ID) })
	start := min((f.Page-1)*f.Limit, len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *stubRoleRepo) Update(_ context.Context, id string, c domain.RoleChanges) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	if c.Name != nil {
		role.Name = *c.Name
	}
	if c.AccessModules != nil {
		role.AccessModules = domain.NewModuleSet(c.AccessModules.Sorted()...)
	}
	if c.Active != nil {
		role.Active = *c.Active
	}
	return cloneRole(role), nil
}

func (r *stubRoleRepo) AddModules(_ context.Context, id string, modules []string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	role.AccessModules = role.AccessModules.Union(domain.NewModuleSet(modules...))
	return cloneRole(role), nil
}

func (r *stubRoleRepo) RemoveModules(_ context.Context, id string, modules []string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	role.AccessModules = role.AccessModules.Difference(domain.NewModuleSet(modules...))
	return cloneRole(role), nil
}

func (r *stubRoleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Hashing and login guard
// ---------------------------------------------------------------------------

type testHasher struct{}

func (testHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func (testHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type stubGuard struct {
	blocked  bool
	checkErr error
	failures map[string]int
	resets   []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{failures: make(map[string]int)}
}

func (g *stubGuard) Blocked(_ context.Context, id string) (bool, error) {
	return g.blocked, g.checkErr
}

func (g *stubGuard) RecordFailure(_ context.Context, id string) error {
	g.failures[id]++
	return nil
}

func (g *stubGuard) Reset(_ context.Context, id string) error {
	g.resets = append(g.resets, id)
	return nil
}

func ptr[T any](v T) *T { return &v }
