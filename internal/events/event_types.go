package events

import (
	"time"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRoleChanged EventType = "user_role_changed"
	EventUserDeactivated EventType = "user_deactivated"
	EventUserReactivated EventType = "user_reactivated"
	EventUserUpdated     EventType = "user_updated"
	EventUserCreated     EventType = "user_created"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
	Reason  string      `json:"reason,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.UserStatus `json:"old_status"`
	NewStatus domain.UserStatus `json:"new_status"`
	Reason    string            `json:"reason,omitempty"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
