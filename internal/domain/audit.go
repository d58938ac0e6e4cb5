package domain

import "time"

// AuditEventType enumerates the closed audit vocabulary.
type AuditEventType string

const (
	EventUserRoleChanged     AuditEventType = "user.role_changed"
	EventUserDeactivated     AuditEventType = "user.deactivated"
	EventUserReactivated     AuditEventType = "user.reactivated"
	EventUserCreated         AuditEventType = "user.created"
	EventUserUpdated         AuditEventType = "user.updated"
	EventUserDeleted         AuditEventType = "user.deleted"
	EventUserPasswordChanged AuditEventType = "user.password_changed"
	EventLoginSuccess        AuditEventType = "auth.login_success"
	EventLoginFailed         AuditEventType = "auth.login_failed"
	EventPermissionDenied    AuditEventType = "auth.permission_denied"
)

// FieldChange captures the before/after values of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEvent is an immutable record of an administrative action. Records are
// never mutated or deleted once written; retrieval orders by Timestamp
// descending.
type AuditEvent struct {
	ID          string
	EventType   AuditEventType
	ActorID     string
	ActorEmail  string
	TargetID    *string
	TargetEmail *string
	Changes     map[string]FieldChange
	Reason      *string
	Metadata    map[string]any
	Timestamp   time.Time
}

// AuditFilter narrows audit queries; all set fields are ANDed together.
type AuditFilter struct {
	EventType *AuditEventType
	ActorID   *string
	TargetID  *string
	From      *time.Time
	To        *time.Time
}
