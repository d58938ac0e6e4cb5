// Seeds the role permission documents and, when SEED_ADMIN_EMAIL is set, an
// initial admin account. Run once when setting up a new environment; reruns
// are safe because permission writes are upserts.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/cache"
	"github.com/spec-kit/gadgetcloud-admin/internal/config"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/idgen"
	"github.com/spec-kit/gadgetcloud-admin/internal/observability"
	"github.com/spec-kit/gadgetcloud-admin/internal/persistence"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
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

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	permissionService := service.NewPermissionService(
		repository.NewPermissionRepository(pool),
		cache.NewPolicyCache(cfg.Policy.CacheTTL()),
		logger, nil)

	for _, seed := range defaultPermissions() {
		if _, err := permissionService.UpsertRolePermissions(ctx, seed.role, seed.description, seed.resources); err != nil {
			logger.Fatal("failed to seed permissions", zap.String("role", string(seed.role)), zap.Error(err))
		}
		logger.Info("seeded permissions", zap.String("role", string(seed.role)), zap.Int("resources", len(seed.resources)))
	}

	if email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))); email != "" {
		if err := seedAdmin(ctx, pool, cfg, email, logger); err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
	}

	logger.Info("seeding complete")
}

// seedAdmin creates the bootstrap admin account if no account with the given
// email exists yet.
func seedAdmin(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, email string, logger *zap.Logger) error {
	users := repository.NewUserRepository(pool)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		logger.Info("admin account already exists", zap.String("email", email))
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required when SEED_ADMIN_EMAIL is set")
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	id, err := idgen.NewGenerator(pool).NextUserID(ctx)
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         "Platform Admin",
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("seeded admin account", zap.String("email", email), zap.String("user_id", id))
	return nil
}

type roleSeed struct {
	role        domain.Role
	description string
	resources   map[string]domain.ResourcePermission
}

func grant(scope domain.PermissionScope, actions ...string) domain.ResourcePermission {
	return domain.ResourcePermission{Actions: actions, Scope: scope}
}

func defaultPermissions() []roleSeed {
	return []roleSeed{
		{
			role:        domain.RoleCustomer,
			description: "Standard customer with access to personal devices and repairs",
			resources: map[string]domain.ResourcePermission{
				"items":   grant(domain.ScopeOwn, "view", "create", "edit", "delete"),
				"profile": grant(domain.ScopeOwn, "view", "edit"),
				"repairs": grant(domain.ScopeOwn, "view", "create"),
			},
		},
		{
			role:        domain.RolePartner,
			description: "Service partner with access to assigned repairs and inventory",
			resources: map[string]domain.ResourcePermission{
				"items":     grant(domain.ScopeOwn, "view", "create", "edit", "delete"),
				"profile":   grant(domain.ScopeOwn, "view", "edit"),
				"repairs":   grant(domain.ScopeAssigned, "view", "edit", "update_status"),
				"inventory": grant(domain.ScopeOwn, "view", "edit"),
				"customers": grant(domain.ScopeAssigned, "view"),
			},
		},
		{
			role:        domain.RoleSupport,
			description: "Support staff with access to customer data and support tickets",
			resources: map[string]domain.ResourcePermission{
				"items":           grant(domain.ScopeAll, "view"),
				"profile":         grant(domain.ScopeOwn, "view", "edit"),
				"repairs":         grant(domain.ScopeAll, "view", "edit", "update_status"),
				"customers":       grant(domain.ScopeAll, "view"),
				"support_tickets": grant(domain.ScopeAll, "view", "create", "edit", "resolve"),
				"audit_logs":      grant(domain.ScopeOwn, "view"),
			},
		},
		{
			role:        domain.RoleAdmin,
			description: "Full system administrator with all permissions",
			resources: map[string]domain.ResourcePermission{
				"items":           grant(domain.ScopeAll, "view", "create", "edit", "delete"),
				"profile":         grant(domain.ScopeOwn, "view", "edit"),
				"repairs":         grant(domain.ScopeAll, "view", "create", "edit", "delete"),
				"users":           grant(domain.ScopeAll, "view", "create", "edit", "delete", "change_role", "deactivate"),
				"customers":       grant(domain.ScopeAll, "view", "edit"),
				"partners":        grant(domain.ScopeAll, "view", "create", "edit", "deactivate"),
				"support_tickets": grant(domain.ScopeAll, "view", "create", "edit", "delete", "resolve"),
				"audit_logs":      grant(domain.ScopeAll, "view", "export"),
				"permissions":     grant(domain.ScopeAll, "view", "edit"),
				"inventory":       grant(domain.ScopeAll, "view", "create", "edit", "delete"),
			},
		},
	}
}
