package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// AuditLogsHandler exposes the audit trail query endpoints. Support staff see
// only records where they are the actor; that restriction lives here, not in
// the service, so internal callers keep full visibility.
type AuditLogsHandler struct {
	audit *service.AuditService
}

// NewAuditLogsHandler constructs the handler.
func NewAuditLogsHandler(audit *service.AuditService) *AuditLogsHandler {
	return &AuditLogsHandler{audit: audit}
}

func callerPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// Get handles GET /api/admin/audit-logs/:id.
func (h *AuditLogsHandler) Get(c *fiber.Ctx) error {
	principal, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	event, err := h.audit.GetAuditLogByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	if principal.Role() == domain.RoleSupport && event.ActorID != principal.User.ID {
		return apperrors.NewForbidden("support staff can only view their own audit logs")
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventView(event)})
}

// List handles GET /api/admin/audit-logs.
func (h *AuditLogsHandler) List(c *fiber.Ctx) error {
	principal, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	filter := domain.AuditFilter{}
	if et := c.Query("eventType"); et != "" {
		eventType := domain.AuditEventType(et)
		filter.EventType = &eventType
	}
	if actorID := c.Query("actorId"); actorID != "" {
		filter.ActorID = &actorID
	}
	if targetID := c.Query("targetId"); targetID != "" {
		filter.TargetID = &targetID
	}

	// Support staff only see their own actions, whatever filter they sent.
	if principal.Role() == domain.RoleSupport {
		filter.ActorID = &principal.User.ID
	}

	events, err := h.audit.GetAuditLogs(c.Context(), filter, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventViews(events)})
}

// UserHistory handles GET /api/admin/audit-logs/user/:id.
func (h *AuditLogsHandler) UserHistory(c *fiber.Ctx) error {
	principal, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	userID := c.Params("id")
	if principal.Role() == domain.RoleSupport && userID != principal.User.ID {
		return apperrors.NewForbidden("support staff can only view their own audit history")
	}

	events, err := h.audit.GetUserAuditHistory(c.Context(),
		userID,
		c.QueryInt("limit", 50),
		c.QueryBool("includeAsActor", true),
		c.QueryBool("includeAsTarget", true))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventViews(events)})
}

// Recent handles GET /api/admin/audit-logs/recent.
func (h *AuditLogsHandler) Recent(c *fiber.Ctx) error {
	principal, err := callerPrincipal(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	if limit > 50 {
		limit = 50
	}

	filter := domain.AuditFilter{}
	if principal.Role() == domain.RoleSupport {
		filter.ActorID = &principal.User.ID
	}

	events, err := h.audit.GetAuditLogs(c.Context(), filter, limit, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventViews(events)})
}

// Statistics handles GET /api/admin/audit-logs/statistics.
func (h *AuditLogsHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.audit.Statistics(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
