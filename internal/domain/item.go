package domain

import "time"

// ItemStatus tracks the state of an owned device.
type ItemStatus string

const (
	ItemStatusActive          ItemStatus = "active"
	ItemStatusInRepair        ItemStatus = "in_repair"
	ItemStatusWarrantyExpired ItemStatus = "warranty_expired"
	ItemStatusSold            ItemStatus = "sold"
)

// Item is a customer-owned device or gadget.
type Item struct {
	ID        string
	OwnerID   string
	Name      string
	Category  string
	Brand     string
	Model     string
	Status    ItemStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
