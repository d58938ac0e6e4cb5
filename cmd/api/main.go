package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/agent"
	httptransport "github.com/spec-kit/gadgetcloud-admin/internal/api/http"
	"github.com/spec-kit/gadgetcloud-admin/internal/api/http/handlers"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/cache"
	"github.com/spec-kit/gadgetcloud-admin/internal/config"
	"github.com/spec-kit/gadgetcloud-admin/internal/events"
	"github.com/spec-kit/gadgetcloud-admin/internal/idgen"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/persistence"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	"github.com/spec-kit/gadgetcloud-admin/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	repairRepo := repository.NewRepairRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(auditRepo, logger, metrics)
	permissionService := service.NewPermissionService(permissionRepo, cache.NewPolicyCache(cfg.Policy.CacheTTL()), logger, metrics)
	adminUserService := service.NewAdminUserService(service.AdminUserDependencies{
		UserRepo:   userRepo,
		Audit:      auditService,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	limiter := auth.NewLoginThrottle(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Audit:      auditService,
		Tokens:     tokenManager,
		Limiter:    limiter,
		IDs:        idgen.NewGenerator(pool),
		Dispatcher: dispatcher,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
		Metrics:    metrics,
	})

	inventoryService := service.NewInventoryService(itemRepo, repairRepo, logger)
	settingsService := service.NewSettingsService(settingsRepo, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	orchestrator := agent.NewOrchestrator(agent.NewRegistry(), logger)

	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)
	guard := auth.NewGuard(permissionService, authService.RecordPermissionDenied, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		AdminUsers:      handlers.NewAdminUsersHandler(adminUserService),
		AuditLogs:       handlers.NewAuditLogsHandler(auditService),
		Permissions:     handlers.NewPermissionsHandler(permissionService),
		Inventory:       handlers.NewInventoryHandler(inventoryService),
		Chat:            handlers.NewChatHandler(orchestrator),
		Settings:        handlers.NewSettingsHandler(settingsService),
		AuthMiddleware:  authMiddleware,
		Guard:           guard,
		MetricsGatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
