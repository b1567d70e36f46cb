package permissions

import "time"

// Permission represents an atomic capability identified by a unique code
// such as "users.view".
type Permission struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
