package service

import (
	"sort"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	"github.com/spec-kit/gadgetcloud-admin/internal/repository"
)

// changeSet accumulates the fields a combined admin update actually changes.
// The audit event type is derived once, at the end, by a priority rule:
// role+status change > role-only > status-only > generic update.
type changeSet struct {
	update  repository.UserUpdate
	changes map[string]domain.FieldChange

	roleChanged   bool
	statusChanged bool
	newStatus     domain.UserStatus
}

func newChangeSet() *changeSet {
	return &changeSet{changes: make(map[string]domain.FieldChange)}
}

func (cs *changeSet) empty() bool {
	return len(cs.changes) == 0
}

func (cs *changeSet) setName(oldName, name, firstName, lastName string) {
	cs.update.Name = &name
	cs.update.FirstName = &firstName
	cs.update.LastName = &lastName
	cs.changes["name"] = domain.FieldChange{Old: oldName, New: name}
}

func (cs *changeSet) setMobile(oldMobile, mobile string) {
	cs.update.Mobile = &mobile
	var old any
	if oldMobile != "" {
		old = oldMobile
	}
	cs.changes["mobile"] = domain.FieldChange{Old: old, New: mobile}
}

func (cs *changeSet) setRole(oldRole, newRole domain.Role, actorID string) {
	cs.update.Role = &newRole
	cs.update.PreviousRole = &oldRole
	cs.update.RoleChangedBy = &actorID
	cs.changes["role"] = domain.FieldChange{Old: string(oldRole), New: string(newRole)}
	cs.roleChanged = true
}

func (cs *changeSet) setStatus(oldStatus, newStatus domain.UserStatus, actorID string) {
	cs.update.Status = &newStatus
	cs.update.StatusChangedBy = &actorID
	cs.changes["status"] = domain.FieldChange{Old: string(oldStatus), New: string(newStatus)}
	cs.statusChanged = true
	cs.newStatus = newStatus
}

// eventType derives the single audit event type for the whole change set.
func (cs *changeSet) eventType() domain.AuditEventType {
	switch {
	case cs.roleChanged && cs.statusChanged:
		return domain.EventUserUpdated
	case cs.roleChanged:
		return domain.EventUserRoleChanged
	case cs.statusChanged:
		if cs.newStatus == domain.UserStatusInactive {
			return domain.EventUserDeactivated
		}
		return domain.EventUserReactivated
	default:
		return domain.EventUserUpdated
	}
}

func (cs *changeSet) changedFields() []string {
	fields := make([]string, 0, len(cs.changes))
	for field := range cs.changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
