package dto

import (
	"time"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// ItemRequest payload for creating or updating an item.
type ItemRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Status   *string `json:"status"`
}

// ItemView is the API shape of an item.
type ItemView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand,omitempty"`
	Model     string    `json:"model,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewItemView maps a domain item.
func NewItemView(item *domain.Item) ItemView {
	return ItemView{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		Brand:     item.Brand,
		Model:     item.Model,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// BookRepairRequest payload for repair bookings.
type BookRepairRequest struct {
	ItemID        string     `json:"itemId"`
	Issue         string     `json:"issue"`
	PreferredDate *time.Time `json:"preferredDate"`
}

// RepairView is the API shape of a repair booking.
type RepairView struct {
	ID                  string     `json:"id"`
	ItemID              string     `json:"itemId"`
	Issue               string     `json:"issue"`
	Status              string     `json:"status"`
	PreferredDate       *time.Time `json:"preferredDate,omitempty"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// NewRepairView maps a domain repair.
func NewRepairView(repair *domain.Repair) RepairView {
	return RepairView{
		ID:                  repair.ID,
		ItemID:              repair.ItemID,
		Issue:               repair.Issue,
		Status:              string(repair.Status),
		PreferredDate:       repair.PreferredDate,
		EstimatedCompletion: repair.EstimatedCompletion,
		CreatedAt:           repair.CreatedAt,
		UpdatedAt:           repair.UpdatedAt,
	}
}
