package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// SettingsHandler exposes per-user settings endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	settings, err := h.settings.Get(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settings})
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	settings, err := h.settings.Update(c.Context(), principal.User.ID, service.SettingsPatch{
		Notifications: req.Notifications,
		Privacy:       req.Privacy,
		Security:      req.Security,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settings})
}
