package grants

import "time"

// Grant is one row of the role-permission graph. The (RoleID, PermissionID)
// pair is unique; GrantedBy records the principal who created the grant and
// is nil for unattributed grants (seeding, unauthenticated bulk loads).
type Grant struct {
	RoleID       int64     `json:"role_id"`
	PermissionID int64     `json:"permission_id"`
	GrantedBy    *int64    `json:"granted_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
