package assignments

import "time"

type AssignRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

type AssignManyRequest struct {
	UserID  int64   `json:"user_id" validate:"required,gt=0"`
	RoleIDs []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

type SyncRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"dive,gt=0"`
}

// AssignmentDetail is an assignment joined with its role, the shape every
// user-scoped read and mutation returns.
type AssignmentDetail struct {
	UserID      int64     `json:"user_id"`
	RoleID      int64     `json:"role_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	AssignedBy  *int64    `json:"assigned_by,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// UserRoles is the payload for user-scoped assignment reads.
type UserRoles struct {
	UserID int64              `json:"user_id"`
	Roles  []AssignmentDetail `json:"roles"`
}

// PermissionSet is the payload of the resolver read.
type PermissionSet struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// CheckResult is the payload of the single-permission membership test.
type CheckResult struct {
	UserID     int64  `json:"user_id"`
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}
