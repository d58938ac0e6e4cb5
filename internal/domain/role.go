package domain

// Role is one of the fixed platform roles. The set is closed and not
// user-editable; permission documents are keyed by these values.
type Role string

const (
	RoleCustomer Role = "customer"
	RolePartner  Role = "partner"
	RoleSupport  Role = "support"
	RoleAdmin    Role = "admin"
)

// ValidRoles lists every assignable role.
var ValidRoles = []Role{RoleCustomer, RolePartner, RoleSupport, RoleAdmin}

// IsValidRole reports whether r is part of the closed role set.
func IsValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RolePartner, RoleSupport, RoleAdmin:
		return true
	}
	return false
}
