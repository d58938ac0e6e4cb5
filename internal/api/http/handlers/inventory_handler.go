package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gadgetcloud-admin/internal/api/dto"
	"github.com/spec-kit/gadgetcloud-admin/internal/auth"
	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/service"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

// InventoryHandler exposes owner-scoped item and repair endpoints.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler constructs the handler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

func ownerID(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return principal.User.ID, nil
}

// ListItems handles GET /api/items.
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var category *string
	if cat := c.Query("category"); cat != "" {
		category = &cat
	}

	items, err := h.inventory.ListItems(c.Context(), owner, category)
	if err != nil {
		return err
	}

	views := make([]dto.ItemView, 0, len(items))
	for i := range items {
		views = append(views, dto.NewItemView(&items[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}

// GetItem handles GET /api/items/:id.
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	item, err := h.inventory.GetItem(c.Context(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemView(item)})
}

// CreateItem handles POST /api/items.
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req dto.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.inventory.CreateItem(c.Context(), owner, service.ItemInput{
		Name:     req.Name,
		Category: req.Category,
		Brand:    req.Brand,
		Model:    req.Model,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewItemView(item)})
}

// UpdateItem handles PUT /api/items/:id.
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req dto.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var status *domain.ItemStatus
	if req.Status != nil {
		st := domain.ItemStatus(*req.Status)
		status = &st
	}

	item, err := h.inventory.UpdateItem(c.Context(), owner, c.Params("id"), service.ItemInput{
		Name:     req.Name,
		Category: req.Category,
		Brand:    req.Brand,
		Model:    req.Model,
	}, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemView(item)})
}

// DeleteItem handles DELETE /api/items/:id.
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	if err := h.inventory.DeleteItem(c.Context(), owner, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "item deleted"}})
}

// ListRepairs handles GET /api/repairs.
func (h *InventoryHandler) ListRepairs(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	repairs, err := h.inventory.ListRepairs(c.Context(), owner)
	if err != nil {
		return err
	}

	views := make([]dto.RepairView, 0, len(repairs))
	for i := range repairs {
		views = append(views, dto.NewRepairView(&repairs[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}

// GetRepair handles GET /api/repairs/:id.
func (h *InventoryHandler) GetRepair(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	repair, err := h.inventory.GetRepair(c.Context(), owner, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRepairView(repair)})
}

// BookRepair handles POST /api/repairs.
func (h *InventoryHandler) BookRepair(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req dto.BookRepairRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	repair, err := h.inventory.BookRepair(c.Context(), owner, service.RepairInput{
		ItemID:        req.ItemID,
		Issue:         req.Issue,
		PreferredDate: req.PreferredDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRepairView(repair)})
}
