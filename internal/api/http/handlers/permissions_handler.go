package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// PermissionsHandler exposes the policy store endpoints.
type PermissionsHandler struct {
	permissions *service.PermissionService
}

// NewPermissionsHandler constructs the handler.
func NewPermissionsHandler(permissions *service.PermissionService) *PermissionsHandler {
	return &PermissionsHandler{permissions: permissions}
}

// GetRole handles GET /api/admin/permissions/:role. The endpoint is public:
// the frontend loads permissions right after login to configure its UI.
func (h *PermissionsHandler) GetRole(c *fiber.Ctx) error {
	role := domain.Role(c.Params("role"))
	if !domain.IsValidRole(role) {
		return apperrors.NewValidationError("invalid role: "+string(role), nil)
	}

	doc, err := h.permissions.GetRolePermissions(c.Context(), role)
	if err != nil {
		return err
	}
	if doc == nil {
		return apperrors.NewNotFound("permissions", map[string]any{"role": role})
	}
	return c.JSON(fiber.Map{"data": doc})
}

// List handles GET /api/admin/permissions.
func (h *PermissionsHandler) List(c *fiber.Ctx) error {
	docs, err := h.permissions.GetAllPermissions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": docs})
}

// Upsert handles PUT /api/admin/permissions/:role.
func (h *PermissionsHandler) Upsert(c *fiber.Ctx) error {
	var req dto.PermissionUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Resources) == 0 {
		return apperrors.NewValidationError("resources must not be empty", nil)
	}

	resources := make(map[string]domain.ResourcePermission, len(req.Resources))
	for resource, perm := range req.Resources {
		resources[resource] = domain.ResourcePermission{
			Actions: perm.Actions,
			Scope:   domain.PermissionScope(perm.Scope),
		}
	}

	doc, err := h.permissions.UpsertRolePermissions(c.Context(), domain.Role(c.Params("role")), req.Description, resources)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": doc})
}
