package domain

import "time"

// ActionWildcard inside an action list grants every action on the resource.
const ActionWildcard = "*"

// PermissionScope is informational metadata describing intended breadth.
// The engine does not enforce it.
type PermissionScope string

const (
	ScopeOwn      PermissionScope = "own"
	ScopeAssigned PermissionScope = "assigned"
	ScopeAll      PermissionScope = "all"
)

// ResourcePermission lists the actions a role may perform on one resource.
type ResourcePermission struct {
	Actions []string        `json:"actions"`
	Scope   PermissionScope `json:"scope,omitempty"`
}

// Allows reports whether the action is present, literally or via wildcard.
func (p ResourcePermission) Allows(action string) bool {
	for _, a := range p.Actions {
		if a == action || a == ActionWildcard {
			return true
		}
	}
	return false
}

// PermissionDocument maps resources to allowed actions for a single role.
// Exactly one document exists per role; absence means no permissions.
type PermissionDocument struct {
	Role        Role                          `json:"role"`
	Description string                        `json:"description"`
	Resources   map[string]ResourcePermission `json:"resources"`
	CreatedAt   time.Time                     `json:"createdAt"`
	UpdatedAt   time.Time                     `json:"updatedAt"`
}
