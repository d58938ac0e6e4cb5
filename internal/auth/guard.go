package auth

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// PermissionChecker decides whether a role may perform an action on a
// resource. A store failure is reported alongside a denial so the guard can
// fail closed.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, role domain.Role, resource, action string) (bool, error)
}

// DeniedRecorder is invoked when a permission check denies; implementations
// append an auth.permission_denied audit event. Denial records are
// best-effort: the 403 is returned regardless.
type DeniedRecorder func(ctx context.Context, actor *domain.User, resource, action string)

// Guard builds route-level authorization middleware on top of the
// permission engine.
type Guard struct {
	checker PermissionChecker
	denied  DeniedRecorder
	logger  *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(checker PermissionChecker, denied DeniedRecorder, logger *zap.Logger) *Guard {
	return &Guard{checker: checker, denied: denied, logger: logger}
}

// RequireRole ensures the caller holds the given role. Admins pass any
// role requirement.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		role := principal.Role()
		if role != required && role != domain.RoleAdmin {
			return apperrors.NewForbidden(fmt.Sprintf("access forbidden: %s role required", required))
		}
		return c.Next()
	}
}

// RequirePermission authorizes the caller against the permission engine.
// Engine errors deny (fail closed); clean denials additionally record an
// auth.permission_denied audit event.
func (g *Guard) RequirePermission(resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		allowed, err := g.checker.CheckPermission(c.Context(), principal.Role(), resource, action)
		if err != nil {
			g.logger.Error("permission check failed; denying",
				zap.String("role", string(principal.Role())),
				zap.String("resource", resource),
				zap.String("action", action),
				zap.Error(err))
			return apperrors.NewForbidden("permission check unavailable")
		}
		if !allowed {
			if g.denied != nil {
				g.denied(c.Context(), principal.User, resource, action)
			}
			return apperrors.NewForbidden(fmt.Sprintf("missing permission: %s.%s", resource, action))
		}
		return c.Next()
	}
}
