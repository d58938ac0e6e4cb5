package domain

import "time"

// RepairStatus tracks the state of a repair booking.
type RepairStatus string

const (
	RepairStatusPending    RepairStatus = "pending"
	RepairStatusInProgress RepairStatus = "in_progress"
	RepairStatusCompleted  RepairStatus = "completed"
	RepairStatusCancelled  RepairStatus = "cancelled"
)

// Repair is a repair booking for a customer device.
type Repair struct {
	ID                  string
	ItemID              string
	OwnerID             string
	Issue               string
	Status              RepairStatus
	PreferredDate       *time.Time
	EstimatedCompletion *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
