package enums

import "slices"

// UserRole represents a staff permissions role.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleBackOffice UserRole = "back_office"
	UserRoleTechnician UserRole = "technician"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleBackOffice,
	UserRoleTechnician,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	return slices.Contains(validUserRoles, r)
}

// CanViewAllStores reports whether the role may use the aggregate store view.
func (r UserRole) CanViewAllStores() bool {
	return r == UserRoleAdmin || r == UserRoleBackOffice
}
