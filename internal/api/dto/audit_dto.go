package dto

import (
	"time"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// AuditEventView is the API shape of an audit record.
type AuditEventView struct {
	ID          string                        `json:"id"`
	EventType   string                        `json:"eventType"`
	ActorID     string                        `json:"actorId"`
	ActorEmail  string                        `json:"actorEmail"`
	TargetID    *string                       `json:"targetId,omitempty"`
	TargetEmail *string                       `json:"targetEmail,omitempty"`
	Changes     map[string]domain.FieldChange `json:"changes,omitempty"`
	Reason      *string                       `json:"reason,omitempty"`
	Metadata    map[string]any                `json:"metadata,omitempty"`
	Timestamp   time.Time                     `json:"timestamp"`
}

// NewAuditEventView maps a domain audit event.
func NewAuditEventView(event *domain.AuditEvent) AuditEventView {
	return AuditEventView{
		ID:          event.ID,
		EventType:   string(event.EventType),
		ActorID:     event.ActorID,
		ActorEmail:  event.ActorEmail,
		TargetID:    event.TargetID,
		TargetEmail: event.TargetEmail,
		Changes:     event.Changes,
		Reason:      event.Reason,
		Metadata:    event.Metadata,
		Timestamp:   event.Timestamp,
	}
}

// NewAuditEventViews maps a slice of audit events.
func NewAuditEventViews(events []domain.AuditEvent) []AuditEventView {
	views := make([]AuditEventView, 0, len(events))
	for i := range events {
		views = append(views, NewAuditEventView(&events[i]))
	}
	return views
}
