package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/http/handlers"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	AdminUsers      *handlers.AdminUsersHandler
	AuditLogs       *handlers.AuditLogsHandler
	Permissions     *handlers.PermissionsHandler
	Inventory       *handlers.InventoryHandler
	Chat            *handlers.ChatHandler
	Settings        *handlers.SettingsHandler
	AuthMiddleware  *auth.AuthMiddleware
	Guard           *auth.Guard
	MetricsGatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/readiness", cfg.Health.Ready)

	if cfg.MetricsGatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	items := api.Group("/items", cfg.AuthMiddleware.Handle)
	items.Get("/", cfg.Inventory.ListItems)
	items.Post("/", cfg.Inventory.CreateItem)
	items.Get("/:id", cfg.Inventory.GetItem)
	items.Put("/:id", cfg.Inventory.UpdateItem)
	items.Delete("/:id", cfg.Inventory.DeleteItem)

	repairs := api.Group("/repairs", cfg.AuthMiddleware.Handle)
	repairs.Get("/", cfg.Inventory.ListRepairs)
	repairs.Post("/", cfg.Inventory.BookRepair)
	repairs.Get("/:id", cfg.Inventory.GetRepair)

	chat := api.Group("/chat", cfg.AuthMiddleware.Handle)
	chat.Post("/query", cfg.Chat.Query)
	chat.Get("/capabilities", cfg.Chat.Capabilities)

	settings := api.Group("/settings", cfg.AuthMiddleware.Handle)
	settings.Get("/", cfg.Settings.Get)
	settings.Put("/", cfg.Settings.Update)

	// The per-role read is public: the frontend loads it right after login
	// to configure its UI. Listing and editing stay admin-only.
	permissions := api.Group("/admin/permissions")
	permissions.Get("/", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Permissions.List)
	permissions.Get("/:role", cfg.Permissions.GetRole)
	permissions.Put("/:role", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Permissions.Upsert)

	adminUsers := api.Group("/admin/users", cfg.AuthMiddleware.Handle)
	adminUsers.Get("/", cfg.Guard.RequirePermission("users", "view"), cfg.AdminUsers.List)
	adminUsers.Get("/statistics", cfg.Guard.RequirePermission("users", "view"), cfg.AdminUsers.Statistics)
	adminUsers.Get("/:id", cfg.Guard.RequirePermission("users", "view"), cfg.AdminUsers.Get)
	adminUsers.Put("/:id", cfg.Guard.RequirePermission("users", "edit"), cfg.AdminUsers.Update)
	adminUsers.Put("/:id/role", cfg.Guard.RequirePermission("users", "change_role"), cfg.AdminUsers.ChangeRole)
	adminUsers.Put("/:id/deactivate", cfg.Guard.RequirePermission("users", "deactivate"), cfg.AdminUsers.Deactivate)
	adminUsers.Put("/:id/reactivate", cfg.Guard.RequirePermission("users", "deactivate"), cfg.AdminUsers.Reactivate)

	// Static segments are registered before /:id so "recent" and friends are
	// not swallowed by the id parameter.
	auditLogs := api.Group("/admin/audit-logs", cfg.AuthMiddleware.Handle, cfg.Guard.RequirePermission("audit_logs", "view"))
	auditLogs.Get("/", cfg.AuditLogs.List)
	auditLogs.Get("/recent", cfg.AuditLogs.Recent)
	auditLogs.Get("/statistics", cfg.AuditLogs.Statistics)
	auditLogs.Get("/user/:id", cfg.AuditLogs.UserHistory)
	auditLogs.Get("/:id", cfg.AuditLogs.Get)
}
