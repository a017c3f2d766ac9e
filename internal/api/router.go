package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/accessgate/rbac-service/docs"
	"github.com/accessgate/rbac-service/internal/api/handler"
	"github.com/accessgate/rbac-service/internal/api/middleware"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

const bodyLimit = "1M"

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth   ports.AuthService
	Access ports.AccessService
	Users  ports.UserService
	Bulk   ports.BulkService
}

// Options tune the transport layer.
type Options struct {
	// ClientURL is the only origin allowed by CORS.
	ClientURL string
	// RateLimitStore throttles /api per client IP. Nil disables rate limiting.
	RateLimitStore echomiddleware.RateLimiterStore
	// EnforceModules additionally requires the caller's role to hold the
	// "roles" or "users" module on the matching admin routes.
	EnforceModules bool
	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handler.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{opts.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	roleHandler := handler.NewRoleHandler(svc.Access)
	userHandler := handler.NewUserHandler(svc.Users, svc.Access)
	bulkHandler := handler.NewBulkHandler(svc.Bulk, log)
	healthHandler := handler.NewHealthHandler(opts.HealthChecks)

	// --- Operational endpoints (no auth, no rate limit) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	var apiMiddleware []echo.MiddlewareFunc
	if opts.RateLimitStore != nil {
		apiMiddleware = append(apiMiddleware, rateLimiter(opts.RateLimitStore))
	}
	api := e.Group("/api", apiMiddleware...)

	// --- Auth routes ---
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)

	auth := middleware.Auth(svc.Auth)
	protect := func(module string) []echo.MiddlewareFunc {
		if opts.EnforceModules {
			return []echo.MiddlewareFunc{auth, middleware.RequireModule(svc.Access, module)}
		}
		return []echo.MiddlewareFunc{auth}
	}

	// --- Role routes ---
	roles := api.Group("/roles", protect("roles")...)
	roles.POST("", roleHandler.Create)
	roles.GET("", roleHandler.List)
	roles.GET("/:id", roleHandler.Get)
	roles.PATCH("/:id", roleHandler.Update)
	roles.DELETE("/:id", roleHandler.Delete)
	roles.PATCH("/:id/accessModules/add", roleHandler.AddModules)
	roles.PATCH("/:id/accessModules/remove", roleHandler.RemoveModules)

	// --- User routes ---
	users := api.Group("/users", protect("users")...)
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.Match([]string{http.MethodPost, http.MethodPatch}, "/bulk/update-same", bulkHandler.UpdateSame)
	users.Match([]string{http.MethodPost, http.MethodPatch}, "/bulk/update-different", bulkHandler.UpdateDifferent)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
	users.GET("/:id/has-access", userHandler.HasAccess)

	return e
}

func rateLimiter(store echomiddleware.RateLimiterStore) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, err error) error {
			return &echo.HTTPError{
				Code:     http.StatusTooManyRequests,
				Message:  "Too many requests, please try again later.",
				Internal: err,
			}
		},
	})
}
