// Package models contains domain entities and business models for the lead management system
package models

import (
	"strings"
)

// NormalizedRole is the canonical role used for authorization decisions
type NormalizedRole string

const (
	RoleSuperAdmin    NormalizedRole = "super-admin"
	RoleCenterManager NormalizedRole = "center-manager"
	RoleCounselor     NormalizedRole = "counselor"
	RoleUnknown       NormalizedRole = "unknown"
)

// String returns the string representation of the role
func (r NormalizedRole) String() string {
	return string(r)
}

// NormalizeRole folds the free-form role labels stored on users into a canonical role.
// The admin flag always wins over the label.
func NormalizeRole(role string, isAdmin bool) NormalizedRole {
	if isAdmin {
		return RoleSuperAdmin
	}

	normalized := strings.ToLower(strings.TrimSpace(role))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	switch normalized {
	case "super-admin", "superadmin", "admin":
		return RoleSuperAdmin
	case "center-manager", "centre-manager", "center-head", "manager", "cm":
		return RoleCenterManager
	case "counselor", "counsellor", "agent", "sales-coordinator":
		return RoleCounselor
	default:
		return RoleUnknown
	}
}
