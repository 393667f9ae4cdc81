package models

// Role is the authenticated principal's role; immutable per session
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleOutletAdmin Role = "OUTLET_ADMIN"
	RoleWorker      Role = "WORKER"
	RoleDriver      Role = "DRIVER"
	RoleCustomer    Role = "CUSTOMER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleOutletAdmin, RoleWorker, RoleDriver, RoleCustomer:
		return true
	}
	return false
}

// IsAdmin reports whether r may decide bypass requests
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleOutletAdmin
}

// HasRole reports whether r is one of allowed
func HasRole(r Role, allowed ...Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
