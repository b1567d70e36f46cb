package roles

import "time"

// Role represents a named permission grouping. Roles flagged as default are
// auto-assigned to newly registered users; more than one role may carry the
// flag at a time.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
