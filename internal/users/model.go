package users

import "time"

// User is an account in the directory. Deletion is soft: DeletedAt is set
// and the row stops being visible to every lookup, while assignments are
// removed eagerly so the permission resolver never sees a deleted user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     *string    `json:"full_name,omitempty"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}
