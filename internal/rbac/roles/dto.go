package roles

import "time"

type CreateRoleRequest struct {
	Name        string  `json:"name" validate:"required,max=64"`
	Description *string `json:"description,omitempty"`
	IsDefault   *bool   `json:"is_default,omitempty"`
}

type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description,omitempty"`
	IsDefault   *bool   `json:"is_default,omitempty"`
}

type ListRolesRequest struct {
	Name      *string `json:"name,omitempty"`
	IsDefault *bool   `json:"is_default,omitempty"`
	Page      int     `json:"page" validate:"gte=0"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
}

type ListRolesResponse struct {
	Roles []Role `json:"roles"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// PermissionGrantView describes a permission carried by a role, used by the
// "role with its grants" read.
type PermissionGrantView struct {
	PermissionID int64     `json:"permission_id"`
	Code         string    `json:"code"`
	Description  *string   `json:"description,omitempty"`
	GrantedBy    *int64    `json:"granted_by,omitempty"`
	GrantedAt    time.Time `json:"granted_at"`
}

// UserAssignmentView describes a user holding a role, used by the "role with
// its assigned users" read.
type UserAssignmentView struct {
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   *string   `json:"full_name,omitempty"`
	AssignedBy *int64    `json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// RoleWithPermissions is the payload for GET /roles/{id}/permissions.
type RoleWithPermissions struct {
	Role        Role                  `json:"role"`
	Permissions []PermissionGrantView `json:"permissions"`
}

// RoleWithUsers is the payload for GET /roles/{id}/users.
type RoleWithUsers struct {
	Role  Role                 `json:"role"`
	Users []UserAssignmentView `json:"users"`
}
