package users

import "github.com/crewdeck/crewdeck/internal/rbac/assignments"

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=64"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
}

type ListUsersRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Page     int     `json:"page" validate:"gte=0"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
}

type ListUsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type ChangeStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// UserWithRoles is the payload for GET /users/{id}/roles.
type UserWithRoles struct {
	User  User                           `json:"user"`
	Roles []assignments.AssignmentDetail `json:"roles"`
}

// UserPermissions is the payload for GET /users/{id}/permissions.
type UserPermissions struct {
	User        User     `json:"user"`
	Permissions []string `json:"permissions"`
}
