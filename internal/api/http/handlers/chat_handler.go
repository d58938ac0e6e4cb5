package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/agent"
	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// ChatHandler exposes the assistant endpoints.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
}

// NewChatHandler constructs the handler.
func NewChatHandler(orchestrator *agent.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Query handles POST /api/chat/query.
func (h *ChatHandler) Query(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return apperrors.NewValidationError("query is required", nil)
	}

	result := h.orchestrator.Execute(c.Context(), req.Query, principal.User.ID, req.Context)
	return c.JSON(result)
}

// Capabilities handles GET /api/chat/capabilities.
func (h *ChatHandler) Capabilities(c *fiber.Ctx) error {
	return c.JSON(h.orchestrator.Capabilities())
}
