// Command server runs the RBAC HTTP API.
//
// @title                       RBAC Service API
// @version                     1.0
// @description                 Users, roles, module access checks and bulk user updates.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/accessgate/rbac-service/internal/api"
	"github.com/accessgate/rbac-service/internal/api/handler"
	"github.com/accessgate/rbac-service/internal/core/service"
	"github.com/accessgate/rbac-service/internal/infrastructure/crypto"
	"github.com/accessgate/rbac-service/internal/infrastructure/db/mongo"
	"github.com/accessgate/rbac-service/internal/infrastructure/db/redis"
	"github.com/accessgate/rbac-service/internal/pkg/config"
	"github.com/accessgate/rbac-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "rbac-service",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Mongo ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongo.NewUserRepository(db)
	roles := mongo.NewRoleRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, roles); err != nil {
		return err
	}

	checks := map[string]handler.DependencyCheck{
		"mongo": func(ctx context.Context) error { return mongo.Ping(ctx, mongoClient) },
	}

	// --- Services ---
	hasher := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(users, roles, hasher, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)

	// --- Redis (optional) ---
	var rateStore echomiddleware.RateLimiterStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)

		authService.WithLoginGuard(redis.NewLoginAttempts(rdb, cfg.Auth.MaxFailures, cfg.Auth.Lockout))
		rateStore = redis.NewRateLimitStore(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
	} else {
		log.Warn().Msg("REDIS_ADDR not set: login guard disabled, using in-memory rate limiter")
		rateStore = memoryRateLimitStore(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	e := api.NewRouter(api.Services{
		Auth:   authService,
		Access: service.NewAccessService(users, roles, log),
		Users:  service.NewUserService(authService, users, roles, hasher, log),
		Bulk:   service.NewBulkService(users, roles, hasher, log),
	}, api.Options{
		ClientURL:      cfg.ClientURL,
		RateLimitStore: rateStore,
		EnforceModules: cfg.Auth.EnforceModules,
		HealthChecks:   checks,
	}, log)

	return serve(ctx, e, ":"+cfg.Port, log)
}

func serve(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// memoryRateLimitStore spreads requests/window evenly with a full-window burst.
func memoryRateLimitStore(requests int, window time.Duration) echomiddleware.RateLimiterStore {
	return echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(requests) / window.Seconds()),
		Burst:     requests,
		ExpiresIn: window,
	})
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
}
