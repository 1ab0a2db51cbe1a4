package rbac

// Role names recognized by the system. Anything else is rejected at the
// dashboard dispatch with an unknown-role error.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"essay:create",
		"essay:view-own",
		"performance:view",
		"user:change_password",
	},
	RoleTeacher: {
		"essay:view",
		"essay:list-pending",
		"essay:correct",
		"performance:view",
		"user:change_password",
	},
	RoleAdmin: {
		"*", // everything
	},
}

// Known reports whether role is one of the recognized roles.
func Known(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}
