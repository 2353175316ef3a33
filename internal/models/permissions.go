package models

// Permission constants define every action gated by role
const (
	PermTechniquesRead   = "techniques.read"
	PermTechniquesCreate = "techniques.create"

	// Admin-only permissions
	PermUsersManage    = "users.manage"
	PermAccessLogsRead = "access_logs.read"
)

var rolePermissions = map[string]map[string]bool{
	RoleUser: {
		PermTechniquesRead: true,
	},
	RoleEditor: {
		PermTechniquesRead:   true,
		PermTechniquesCreate: true,
	},
	RoleAdmin: {
		PermTechniquesRead:   true,
		PermTechniquesCreate: true,
		PermUsersManage:      true,
		PermAccessLogsRead:   true,
	},
}

// IsValidRole checks if a role exists in the whitelist
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// IsValidStatus checks if an account status is known
func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusSuspended, StatusDisabled:
		return true
	}
	return false
}

// RoleHasPermission reports whether role grants perm. Unknown roles grant nothing.
func RoleHasPermission(role, perm string) bool {
	return rolePermissions[role][perm]
}
