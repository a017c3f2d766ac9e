package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/api/metrics"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// UserHandler handles account administration and permission checks.
type UserHandler struct {
	users  ports.UserService
	access ports.AccessService
}

func NewUserHandler(users ports.UserService, access ports.AccessService) *UserHandler {
	return &UserHandler{users: users, access: access}
}

type createUserRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Username  string `json:"username" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	RoleID    string `json:"roleId"`
}

type accessResponse struct {
	HasAccess bool    `json:"hasAccess"`
	Module    string  `json:"module"`
	Role      *string `json:"role"`
}

// Create registers a user on behalf of an administrator.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "User"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		RoleID:    req.RoleID,
	})
	if err != nil {
		return err
	}

	metrics.UsersRegisteredTotal.WithLabelValues("admin").Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// List searches users with pagination.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Matches username, email, firstName or lastName"
// @Param        page    query     int     false  "Page (1-based)"  default(1)
// @Param        limit   query     int     false  "Page size (max 100)"  default(20)
// @Success      200     {object}  listResponse[userResponse]
// @Failure      400     {object}  messageResponse
// @Failure      401     {object}  messageResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	in, err := listInput(c, "search")
	if err != nil {
		return err
	}

	page, err := h.users.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(page, toUserResponse))
}

// Get returns one user with the role populated.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  messageResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update changes profile fields, password, role or active flag.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User ID"
// @Param        body  body      userPatchRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req userPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch, err := req.toPatch()
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes a user.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Deleted"})
}

// HasAccess reports whether the user's role grants a module.
//
// @Summary      Check module access
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "User ID"
// @Param        module  query     string  true  "Module name"
// @Success      200     {object}  accessResponse
// @Failure      400     {object}  messageResponse
// @Failure      404     {object}  messageResponse
// @Router       /users/{id}/has-access [get]
func (h *UserHandler) HasAccess(c echo.Context) error {
	decision, err := h.access.HasAccess(c.Request().Context(), c.Param("id"), c.QueryParam("module"))
	if err != nil {
		return err
	}

	result := "denied"
	if decision.HasAccess {
		result = "granted"
	}
	metrics.AccessChecksTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, accessResponse{
		HasAccess: decision.HasAccess,
		Module:    decision.Module,
		Role:      decision.RoleName,
	})
}
