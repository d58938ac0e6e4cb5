package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/idgen"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

const inventoryIDLength = 10

// InventoryService manages customer devices and their repair bookings. All
// reads and writes are scoped to the owning user; admins see everything
// through the audit and listing surfaces instead.
type InventoryService struct {
	items   repository.ItemRepository
	repairs repository.RepairRepository
	logger  *zap.Logger
}

// NewInventoryService constructs the service.
func NewInventoryService(items repository.ItemRepository, repairs repository.RepairRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{items: items, repairs: repairs, logger: logger}
}

// ItemInput carries item fields supplied by the owner.
type ItemInput struct {
	Name     string
	Category string
	Brand    string
	Model    string
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.NewValidationError("item name is required", nil)
	}
	if strings.TrimSpace(in.Category) == "" {
		return apperrors.NewValidationError("item category is required", nil)
	}
	return nil
}

// CreateItem registers a device under the owner's account.
func (s *InventoryService) CreateItem(ctx context.Context, ownerID string, input ItemInput) (*domain.Item, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	id, err := idgen.RandomID(inventoryIDLength)
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		ID:       id,
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Brand:    strings.TrimSpace(input.Brand),
		Model:    strings.TrimSpace(input.Model),
		Status:   domain.ItemStatusActive,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item created", zap.String("item_id", item.ID), zap.String("owner_id", ownerID))
	return item, nil
}

// GetItem returns an item, enforcing ownership.
func (s *InventoryService) GetItem(ctx context.Context, ownerID, itemID string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("item", map[string]any{"id": itemID})
		}
		return nil, err
	}
	if item.OwnerID != ownerID {
		// Hide other users' items rather than admitting they exist.
		return nil, apperrors.NewNotFound("item", map[string]any{"id": itemID})
	}
	return item, nil
}

// UpdateItem writes the owner-editable fields of an item.
func (s *InventoryService) UpdateItem(ctx context.Context, ownerID, itemID string, input ItemInput, status *domain.ItemStatus) (*domain.Item, error) {
	item, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Category = strings.TrimSpace(input.Category)
	item.Brand = strings.TrimSpace(input.Brand)
	item.Model = strings.TrimSpace(input.Model)
	if status != nil {
		switch *status {
		case domain.ItemStatusActive, domain.ItemStatusInRepair, domain.ItemStatusWarrantyExpired, domain.ItemStatusSold:
			item.Status = *status
		default:
			return nil, apperrors.NewValidationError("invalid item status: "+string(*status), nil)
		}
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an owner's item.
func (s *InventoryService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	if err := s.items.Delete(ctx, itemID, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("item", map[string]any{"id": itemID})
		}
		return err
	}
	s.logger.Info("item deleted", zap.String("item_id", itemID), zap.String("owner_id", ownerID))
	return nil
}

// ListItems returns the owner's items, optionally filtered by category.
func (s *InventoryService) ListItems(ctx context.Context, ownerID string, category *string) ([]domain.Item, error) {
	return s.items.ListByOwner(ctx, ownerID, category)
}

// RepairInput carries a repair booking request.
type RepairInput struct {
	ItemID        string
	Issue         string
	PreferredDate *time.Time
}

// BookRepair opens a pending repair for one of the owner's items and flips
// the item into in_repair.
func (s *InventoryService) BookRepair(ctx context.Context, ownerID string, input RepairInput) (*domain.Repair, error) {
	if strings.TrimSpace(input.Issue) == "" {
		return nil, apperrors.NewValidationError("issue description is required", nil)
	}

	item, err := s.GetItem(ctx, ownerID, input.ItemID)
	if err != nil {
		return nil, err
	}

	id, err := idgen.RandomID(inventoryIDLength)
	if err != nil {
		return nil, err
	}
	repair := &domain.Repair{
		ID:            id,
		ItemID:        item.ID,
		OwnerID:       ownerID,
		Issue:         strings.TrimSpace(input.Issue),
		Status:        domain.RepairStatusPending,
		PreferredDate: input.PreferredDate,
	}
	if err := s.repairs.Create(ctx, repair); err != nil {
		return nil, err
	}

	item.Status = domain.ItemStatusInRepair
	if err := s.items.Update(ctx, item); err != nil {
		s.logger.Warn("repair booked but item status update failed",
			zap.String("repair_id", repair.ID), zap.Error(err))
	}

	s.logger.Info("repair booked",
		zap.String("repair_id", repair.ID),
		zap.String("item_id", item.ID),
		zap.String("owner_id", ownerID))
	return repair, nil
}

// GetRepair returns one of the owner's repairs.
func (s *InventoryService) GetRepair(ctx context.Context, ownerID, repairID string) (*domain.Repair, error) {
	repair, err := s.repairs.GetByID(ctx, repairID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("repair", map[string]any{"id": repairID})
		}
		return nil, err
	}
	if repair.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("repair", map[string]any{"id": repairID})
	}
	return repair, nil
}

// ListRepairs returns the owner's repair bookings, newest first.
func (s *InventoryService) ListRepairs(ctx context.Context, ownerID string) ([]domain.Repair, error) {
	return s.repairs.ListByOwner(ctx, ownerID)
}
