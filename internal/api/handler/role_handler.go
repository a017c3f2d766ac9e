package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/api/metrics"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

// RoleHandler handles HTTP requests for role administration.
type RoleHandler struct {
	service ports.AccessService
}

func NewRoleHandler(service ports.AccessService) *RoleHandler {
	return &RoleHandler{service: service}
}

type createRoleRequest struct {
	RoleName      string     `json:"roleName" validate:"required,max=100"`
	AccessModules moduleList `json:"accessModules" swaggertype:"array,string"`
	Active        *bool      `json:"active"`
}

type updateRoleRequest struct {
	RoleName      *string     `json:"roleName" validate:"omitempty,max=100"`
	AccessModules *moduleList `json:"accessModules" swaggertype:"array,string"`
	Active        *bool       `json:"active"`
}

type modulesRequest struct {
	Modules moduleList `json:"modules" swaggertype:"array,string"`
}

// Create defines a new role.
//
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoleRequest  true  "Role"
// @Success      201   {object}  roleResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.service.CreateRole(c.Request().Context(), ports.CreateRoleInput{
		Name:    req.RoleName,
		Modules: req.AccessModules,
		Active:  req.Active,
	})
	if err != nil {
		return err
	}

	metrics.RoleMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// List searches roles by name with pagination.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  false  "Case-insensitive roleName substring"
// @Param        page   query     int     false  "Page (1-based)"  default(1)
// @Param        limit  query     int     false  "Page size (max 100)"  default(20)
// @Success      200    {object}  listResponse[roleResponse]
// @Failure      400    {object}  messageResponse
// @Failure      401    {object}  messageResponse
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	in, err := listInput(c, "q")
	if err != nil {
		return err
	}

	page, err := h.service.ListRoles(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(page, toRoleResponse))
}

// Get returns a single role.
//
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  roleResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /roles/{id} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.service.GetRole(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// Update partially updates a role. A supplied accessModules replaces the set.
//
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Role ID"
// @Param        body  body      updateRoleRequest  true  "Fields to change"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Router       /roles/{id} [patch]
func (h *RoleHandler) Update(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateRoleInput{Name: req.RoleName, Active: req.Active}
	if req.AccessModules != nil {
		modules := []string(*req.AccessModules)
		in.Modules = &modules
	}

	role, err := h.service.UpdateRole(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}

	metrics.RoleMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// Delete removes a role. Users still referencing it lose all access.
//
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteRole(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	metrics.RoleMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Deleted"})
}

// AddModules merges modules into the role's access set.
//
// @Summary      Add access modules
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Role ID"
// @Param        body  body      modulesRequest  true  "Module or modules"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /roles/{id}/accessModules/add [patch]
func (h *RoleHandler) AddModules(c echo.Context) error {
	var req modulesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.service.AddModules(c.Request().Context(), c.Param("id"), req.Modules)
	if err != nil {
		return err
	}

	metrics.RoleMutationsTotal.WithLabelValues("add_modules").Inc()
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// RemoveModules subtracts modules from the role's access set.
//
// @Summary      Remove access modules
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Role ID"
// @Param        body  body      modulesRequest  true  "Module or modules"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /roles/{id}/accessModules/remove [patch]
func (h *RoleHandler) RemoveModules(c echo.Context) error {
	var req modulesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.service.RemoveModules(c.Request().Context(), c.Param("id"), req.Modules)
	if err != nil {
		return err
	}

	metrics.RoleMutationsTotal.WithLabelValues("remove_modules").Inc()
	return c.JSON(http.StatusOK, toRoleResponse(role))
}
