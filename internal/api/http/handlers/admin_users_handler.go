package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// AdminUsersHandler exposes the admin console's user management endpoints.
type AdminUsersHandler struct {
	users *service.AdminUserService
}

// NewAdminUsersHandler constructs the handler.
func NewAdminUsersHandler(users *service.AdminUserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

func requireActor(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{ID: principal.User.ID, Email: principal.User.Email}, nil
}

// List handles GET /api/admin/users.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserListFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy", "createdAt"),
		SortOrder: c.Query("sortOrder", "desc"),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		if !domain.IsValidRole(r) {
			return apperrors.NewValidationError("invalid role filter: "+role, nil)
		}
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		st := domain.UserStatus(status)
		if !domain.IsValidStatus(st) {
			return apperrors.NewValidationError("invalid status filter: "+status, nil)
		}
		filter.Status = &st
	}

	result, err := h.users.ListUsers(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserListResponse{
		Users:   dto.NewUserViews(result.Users),
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		HasMore: result.HasMore,
	}})
}

// Statistics handles GET /api/admin/users/statistics.
func (h *AdminUsersHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.users.Statistics(c.Context())
	if err != nil {
		return err
	}

	byRole := make(map[string]int, len(stats.ByRole))
	for role, n := range stats.ByRole {
		byRole[string(role)] = n
	}
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}

	return c.JSON(fiber.Map{"data": dto.UserStatsResponse{
		Total:         stats.Total,
		ByRole:        byRole,
		ByStatus:      byStatus,
		RecentSignups: stats.RecentSignups,
	}})
}

// Get handles GET /api/admin/users/:id.
func (h *AdminUsersHandler) Get(c *fiber.Ctx) error {
	user, history, err := h.users.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":         dto.NewUserView(user),
		"auditHistory": dto.NewAuditEventViews(history),
	}})
}

// Update handles PUT /api/admin/users/:id.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UpdateUserInput{
		Name:   req.Name,
		Mobile: req.Mobile,
		Reason: req.Reason,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.users.UpdateUser(c.Context(), c.Params("id"), actor, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserView(user)})
}

// ChangeRole handles PUT /api/admin/users/:id/role.
func (h *AdminUsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.ChangeRole(c.Context(), c.Params("id"), domain.Role(req.NewRole), actor, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserView(user)})
}

// Deactivate handles PUT /api/admin/users/:id/deactivate.
func (h *AdminUsersHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Deactivate(c.Context(), c.Params("id"), actor, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserView(user)})
}

// Reactivate handles PUT /api/admin/users/:id/reactivate.
func (h *AdminUsersHandler) Reactivate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Reactivate(c.Context(), c.Params("id"), actor, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserView(user)})
}
