package permissions

import "time"

type CreatePermissionRequest struct {
	Code        string  `json:"code" validate:"required,max=128"`
	Description *string `json:"description,omitempty"`
}

type UpdatePermissionRequest struct {
	Code        *string `json:"code,omitempty" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description,omitempty"`
}

type ListPermissionsRequest struct {
	Code  *string `json:"code,omitempty"`
	Page  int     `json:"page" validate:"gte=0"`
	Limit int     `json:"limit" validate:"gte=0,lte=1000"`
}

type ListPermissionsResponse struct {
	Permissions []Permission `json:"permissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// RoleGrantView describes a role holding a permission, used by the
// "permission with its roles" read.
type RoleGrantView struct {
	RoleID      int64     `json:"role_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	GrantedBy   *int64    `json:"granted_by,omitempty"`
	GrantedAt   time.Time `json:"granted_at"`
}

// PermissionWithRoles is the payload for GET /permissions/{id}/roles.
type PermissionWithRoles struct {
	Permission Permission      `json:"permission"`
	Roles      []RoleGrantView `json:"roles"`
}
