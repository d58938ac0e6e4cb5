package domain

import "time"

// UserStatus represents account lifecycle states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// IsValidStatus reports whether s is an assignable account status.
func IsValidStatus(s UserStatus) bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// User is the domain model for platform accounts managed by the admin console.
// Role and status transitions are always paired with an audit event.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	Name            string
	FirstName       string
	LastName        string
	Mobile          string
	Role            Role
	Status          UserStatus
	PreviousRole    *Role
	RoleChangedAt   *time.Time
	RoleChangedBy   *string
	StatusChangedAt *time.Time
	StatusChangedBy *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
