package handler

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// moduleList accepts either a single module name or an array of names.
type moduleList []string

func (m *moduleList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*m = moduleList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("modules must be a string or an array of strings")
	}
	*m = many
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// listResponse is the paginated list envelope.
type listResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newListResponse[S, T any](p *ports.Page[S], convert func(S) T) listResponse[T] {
	data := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		data = append(data, convert(item))
	}
	return listResponse[T]{
		Data:       data,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// ── Roles ────────────────────────────────────────────────────────────────────

type roleResponse struct {
	ID            string           `json:"id"`
	RoleName      string           `json:"roleName"`
	AccessModules domain.ModuleSet `json:"accessModules" swaggertype:"array,string"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func toRoleResponse(r *domain.Role) roleResponse {
	return roleResponse{
		ID:            r.ID,
		RoleName:      r.Name,
		AccessModules: r.AccessModules,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}

// roleRef is the populated role embedded in user views.
type roleRef struct {
	ID            string           `json:"id"`
	RoleName      string           `json:"roleName"`
	AccessModules domain.ModuleSet `json:"accessModules" swaggertype:"array,string"`
}

// ── Users ────────────────────────────────────────────────────────────────────

// publicUser is the minimal projection returned by signup and login.
type publicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toPublicUser(u *domain.User) publicUser {
	return publicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// userResponse never carries the password hash.
type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      *roleRef  `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
	if u.Role != nil {
		resp.Role = &roleRef{ID: u.Role.ID, RoleName: u.Role.Name, AccessModules: u.Role.AccessModules}
	}
	return resp
}

// userPatchRequest is shared by single-user and bulk updates. A null or
// empty roleId clears the role.
type userPatchRequest struct {
	FirstName *string         `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string         `json:"lastName" validate:"omitempty,max=100"`
	Password  *string         `json:"password" validate:"omitempty,min=6,max=72"`
	RoleID    json.RawMessage `json:"roleId" swaggertype:"string"`
	Active    *bool           `json:"active"`
}

func (r userPatchRequest) toPatch() (ports.UserPatch, error) {
	patch := ports.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Active:    r.Active,
	}
	if len(r.RoleID) > 0 {
		var roleID *string
		if err := json.Unmarshal(r.RoleID, &roleID); err != nil {
			return patch, domain.Invalid("roleId must be a string or null")
		}
		if roleID == nil {
			empty := ""
			roleID = &empty
		}
		patch.RoleID = roleID
	}
	return patch, nil
}

// userFilterRequest selects users by typed criteria only.
type userFilterRequest struct {
	IDs       []string `json:"ids"`
	Usernames []string `json:"usernames"`
	Emails    []string `json:"emails"`
	RoleID    string   `json:"roleId"`
	Active    *bool    `json:"active"`
}

func (f userFilterRequest) toDomain() domain.UserFilter {
	return domain.UserFilter{
		IDs:       f.IDs,
		Usernames: f.Usernames,
		Emails:    f.Emails,
		RoleID:    f.RoleID,
		Active:    f.Active,
	}
}
