package assignments

import "time"

// Assignment is one row of the user-role graph. The (UserID, RoleID) pair is
// unique; AssignedBy records the principal who created the assignment and is
// nil for unattributed assignments (registration defaults, seeding).
type Assignment struct {
	UserID     int64     `json:"user_id"`
	RoleID     int64     `json:"role_id"`
	AssignedBy *int64    `json:"assigned_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
