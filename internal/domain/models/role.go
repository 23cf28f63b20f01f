package models

import "strings"

// Role enumerates the closed set of user roles.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
	RoleUnknown  Role = "unknown"
)

// Capabilities describes what a role is allowed to do. Handlers branch on
// these flags, never on raw role strings.
type Capabilities struct {
	CanLogShifts   bool `json:"can_log_shifts"`
	CanEditHistory bool `json:"can_edit_history"`
	CanManageSetup bool `json:"can_manage_setup"`
	CanViewReports bool `json:"can_view_reports"`
}

var roleCapabilities = map[Role]Capabilities{
	RoleOwner: {
		CanLogShifts:   true,
		CanEditHistory: true,
		CanManageSetup: true,
		CanViewReports: true,
	},
	RoleAdmin: {
		CanEditHistory: true,
		CanManageSetup: true,
		CanViewReports: true,
	},
	RoleEmployee: {
		CanLogShifts: true,
	},
}

// ParseRole maps a free-form role cell to the closed enumeration.
func ParseRole(value string) Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RoleOwner):
		return RoleOwner
	case string(RoleEmployee):
		return RoleEmployee
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// CapabilitiesFor returns the capability set for a role. Unknown roles get
// an empty set.
func CapabilitiesFor(role Role) Capabilities {
	return roleCapabilities[role]
}

// User is one row of the sheet-backed user list. PinHash is a bcrypt hash.
type User struct {
	Login   string `json:"login"`
	PinHash string `json:"-"`
	Role    Role   `json:"role"`
	Name    string `json:"name"`
}
