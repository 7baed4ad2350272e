package domain

import "strings"

// Role models a named role users reference by name.
type Role struct {
	ID          int64
	Name        string
	Description *string
}

// RoleSets holds the externally configured partitions of the role space.
// Customer and API roles are treated as mutually exclusive when shaping
// login payloads.
type RoleSets struct {
	Available   []string
	Registrable []string
	Customer    []string
	API         []string
}

// IsAvailable reports whether the role is one the service serves at all.
func (r RoleSets) IsAvailable(role string) bool {
	return containsRole(r.Available, role)
}

// IsRegistrable reports whether self-registration is allowed for the role.
func (r RoleSets) IsRegistrable(role string) bool {
	return containsRole(r.Registrable, role)
}

// IsCustomer reports whether the role requires a customer-directory link.
func (r RoleSets) IsCustomer(role string) bool {
	return containsRole(r.Customer, role)
}

// IsAPI reports whether the role belongs to a machine caller.
func (r RoleSets) IsAPI(role string) bool {
	return containsRole(r.API, role)
}

func containsRole(set []string, role string) bool {
	for _, name := range set {
		if strings.EqualFold(name, role) {
			return true
		}
	}
	return false
}
