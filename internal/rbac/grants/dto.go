package grants

import "time"

type GrantRequest struct {
	RoleID       int64 `json:"role_id" validate:"required,gt=0"`
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

type GrantManyRequest struct {
	RoleID        int64   `json:"role_id" validate:"required,gt=0"`
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
}

type SyncRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"dive,gt=0"`
}

// GrantDetail is a grant joined with its permission, the shape every
// role-scoped read and mutation returns.
type GrantDetail struct {
	RoleID       int64     `json:"role_id"`
	PermissionID int64     `json:"permission_id"`
	Code         string    `json:"code"`
	Description  *string   `json:"description,omitempty"`
	GrantedBy    *int64    `json:"granted_by,omitempty"`
	GrantedAt    time.Time `json:"granted_at"`
}

// RoleGrants is the payload for role-scoped grant reads.
type RoleGrants struct {
	RoleID int64         `json:"role_id"`
	Grants []GrantDetail `json:"grants"`
}
