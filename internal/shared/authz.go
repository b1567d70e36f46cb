package shared

// Permission codes used by the platform routes. The catalog is seeded by
// scripts/seed and referenced at route registration time.
const (
	PermUsersView          = "users.view"
	PermUsersCreate        = "users.create"
	PermUsersEdit          = "users.edit"
	PermUsersDelete        = "users.delete"
	PermUsersActivate      = "users.activate"
	PermUsersDeactivate    = "users.deactivate"
	PermUsersResetPassword = "users.reset_password"

	PermRoleView   = "role.view"
	PermRoleCreate = "role.create"
	PermRoleEdit   = "role.edit"
	PermRoleDelete = "role.delete"
	PermRoleAssign = "role.assign"
	PermRoleRevoke = "role.revoke"

	PermPermissionView   = "permission.view"
	PermPermissionCreate = "permission.create"
	PermPermissionEdit   = "permission.edit"
	PermPermissionDelete = "permission.delete"

	PermRolesView       = "roles.view"
	PermPermissionsView = "permissions.view"
)

// CoreScopes lists every permission the platform itself consumes.
func CoreScopes() []string {
	return []string{
		PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
		PermUsersActivate, PermUsersDeactivate, PermUsersResetPassword,
		PermRoleView, PermRoleCreate, PermRoleEdit, PermRoleDelete,
		PermRoleAssign, PermRoleRevoke,
		PermPermissionView, PermPermissionCreate, PermPermissionEdit, PermPermissionDelete,
		PermRolesView, PermPermissionsView,
	}
}
