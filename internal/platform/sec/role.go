// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package sec

import "slices"

// # Roles

// Role represents the authorization level granted to a principal.
type Role string

const (
	// Unrestricted system access, including destructive maintenance endpoints.
	RoleSuperAdmin Role = "SuperAdmin"

	// Same privileges as SuperAdmin, reserved for engineering accounts.
	RoleDeveloperAdmin Role = "DeveloperAdmin"

	// Manages catalog data and end users.
	RoleAdmin Role = "Admin"

	// Default role for registered end users.
	RoleUser Role = "User"

	// Synthesized for anonymous callers on guest-enabled routes. Never persisted.
	RoleGuest Role = "Guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleDeveloperAdmin, RoleAdmin, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r belongs to the admin principal kind.
func (r Role) IsAdmin() bool {
	return AdminRoles.Contains(r)
}

// # Role Sets

// RoleSet is a closed set of roles allowed through an authorization gate.
type RoleSet []Role

// Contains reports whether role is a member of the set.
func (s RoleSet) Contains(role Role) bool {
	return slices.Contains(s, role)
}

var (
	// SuperAdminRoles may run maintenance and status operations.
	SuperAdminRoles = RoleSet{RoleSuperAdmin, RoleDeveloperAdmin}

	// AdminRoles are every role stored in the admins table.
	AdminRoles = RoleSet{RoleSuperAdmin, RoleDeveloperAdmin, RoleAdmin}

	// UserRoles are end users only.
	UserRoles = RoleSet{RoleUser}

	// AuthenticatedRoles covers every persisted principal.
	AuthenticatedRoles = RoleSet{RoleSuperAdmin, RoleDeveloperAdmin, RoleAdmin, RoleUser}
)
