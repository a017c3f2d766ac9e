package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/rbac-service/internal/api/middleware"
	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, identifier, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) Verify(string) (*domain.Claims, error) {
	return nil, domain.ErrInvalidToken
}

type stubAccessService struct {
	hasAccessFn     func(ctx context.Context, userID, module string) (*ports.AccessDecision, error)
	createRoleFn    func(ctx context.Context, in ports.CreateRoleInput) (*domain.Role, error)
	listRolesFn     func(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.Role], error)
	getRoleFn       func(ctx context.Context, id string) (*domain.Role, error)
	updateRoleFn    func(ctx context.Context, id string, in ports.UpdateRoleInput) (*domain.Role, error)
	deleteRoleFn    func(ctx context.Context, id string) error
	addModulesFn    func(ctx context.Context, id string, modules []string) (*domain.Role, error)
	removeModulesFn func(ctx context.Context, id string, modules []string) (*domain.Role, error)
}

func (s *stubAccessService) HasAccess(ctx context.Context, userID, module string) (*ports.AccessDecision, error) {
	return s.hasAccessFn(ctx, userID, module)
}

func (s *stubAccessService) CreateRole(ctx context.Context, in ports.CreateRoleInput) (*domain.Role, error) {
	return s.createRoleFn(ctx, in)
}

func (s *stubAccessService) ListRoles(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.Role], error) {
	return s.listRolesFn(ctx, in)
}

func (s *stubAccessService) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	return s.getRoleFn(ctx, id)
}

func (s *stubAccessService) UpdateRole(ctx context.Context, id string, in ports.UpdateRoleInput) (*domain.Role, error) {
	return s.updateRoleFn(ctx, id, in)
}

func (s *stubAccessService) DeleteRole(ctx context.Context, id string) error {
	return s.deleteRoleFn(ctx, id)
}

func (s *stubAccessService) AddModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	return s.addModulesFn(ctx, id, modules)
}

func (s *stubAccessService) RemoveModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	return s.removeModulesFn(ctx, id, modules)
}

type stubUserService struct {
	createFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	listFn   func(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.User], error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	updateFn func(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubUserService) Create(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) List(ctx context.Context, in ports.ListInput) (*ports.Page[*domain.User], error) {
	return s.listFn(ctx, in)
}

func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubUserService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubBulkService struct {
	uniformFn func(ctx context.Context, filter domain.UserFilter, patch ports.UserPatch) (*ports.BulkResult, error)
	variedFn  func(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error)
}

func (s *stubBulkService) UpdateManyUniform(ctx context.Context, filter domain.UserFilter, patch ports.UserPatch) (*ports.BulkResult, error) {
	return s.uniformFn(ctx, filter, patch)
}

func (s *stubBulkService) UpdateManyVaried(ctx context.Context, ops []ports.BulkOperation) ([]ports.OperationResult, error) {
	return s.variedFn(ctx, ops)
}

// newContext builds an echo context with the validator installed, an optional
// JSON body, an optional :id path param and an authenticated caller.
func newContext(method, target, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.UserIDKey, "caller")

	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

