package auth

import (
	"time"

	"github.com/crewdeck/crewdeck/internal/users"
)

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=64"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the credential set issued by login, register and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponse couples the issued tokens with the account they belong to.
type AuthResponse struct {
	User   users.User `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

// MeResponse is the authenticated principal's own view: the account plus its
// effective permission set, so clients can build their UI without a second
// round trip.
type MeResponse struct {
	User        users.User `json:"user"`
	Permissions []string   `json:"permissions"`
}
