package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crewdeck/crewdeck/internal/app"
	"github.com/crewdeck/crewdeck/internal/auth"
	"github.com/crewdeck/crewdeck/internal/observability"
	"github.com/crewdeck/crewdeck/internal/platform/cache"
	"github.com/crewdeck/crewdeck/internal/platform/db"
	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/rbac/assignments"
	"github.com/crewdeck/crewdeck/internal/rbac/grants"
	"github.com/crewdeck/crewdeck/internal/rbac/permissions"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
	"github.com/crewdeck/crewdeck/internal/users"
	"github.com/crewdeck/crewdeck/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	permissionRepo := permissions.NewRepository(dbpool)
	permissionService := permissions.NewService(permissionRepo)

	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo)

	grantRepo := grants.NewRepository(dbpool)
	grantService := grants.NewService(grantRepo, roleService, permissionService)

	userRepo := users.NewRepository(dbpool)

	assignmentRepo := assignments.NewRepository(dbpool)
	assignmentService := assignments.NewService(assignmentRepo, roleService, userRepo)

	userService := users.NewService(userRepo, assignmentService, jobClient, cfg.DefaultPassword)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(logger, userService, roleService, assignmentService, tokenManager, refreshStore, authRepo)
	authenticator := auth.NewAuthenticator(tokenManager)

	rbacMiddleware := rbac.Middleware{Source: assignmentService, Logger: logger}

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      authenticator,
		AuthHandler:        auth.NewHandler(logger, authService),
		PermissionsHandler: permissions.NewHandler(logger, permissionService, grantService),
		RolesHandler:       roles.NewHandler(logger, roleService, grantService, assignmentService),
		GrantsHandler:      grants.NewHandler(logger, grantService, auditLogger),
		AssignmentsHandler: assignments.NewHandler(logger, assignmentService, auditLogger),
		UsersHandler:       users.NewHandler(logger, userService, auditLogger),
		JobHandler:         jobHandler,
		Pool:               dbpool,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
