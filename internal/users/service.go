package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/crewdeck/crewdeck/internal/rbac/assignments"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// RoleGraph is the slice of the assignment service the user directory needs:
// cleanup on deletion and the two enrichment reads.
type RoleGraph interface {
	RemoveUserRoles(ctx context.Context, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]assignments.AssignmentDetail, error)
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// Enqueuer hands notification work to the job queue. A nil Enqueuer disables
// notifications, which tests and the seeder rely on.
type Enqueuer interface {
	EnqueueWelcomeEmail(ctx context.Context, email, username string) error
}

// Service owns the user directory business rules.
type Service struct {
	repo            Repository
	roleGraph       RoleGraph
	enqueuer        Enqueuer
	defaultPassword string
}

// NewService builds a Service instance. defaultPassword is what admin-driven
// password resets fall back to.
func NewService(repo Repository, roleGraph RoleGraph, enqueuer Enqueuer, defaultPassword string) *Service {
	return &Service{
		repo:            repo,
		roleGraph:       roleGraph,
		enqueuer:        enqueuer,
		defaultPassword: defaultPassword,
	}
}

// Create inserts a new account. Username and email are checked separately so
// the conflict message names the clashing field; the storage constraints
// back up both checks.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if existing, err := s.findByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, shared.Conflict("Username '%s' already exists", req.Username)
	}
	if existing, err := s.findByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, shared.Conflict("Email '%s' already exists", req.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, req.Username, req.Email, string(hash), req.FullName)
	if err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueWelcomeEmail(ctx, user.Email, user.Username); err != nil {
			// Notification delivery is not part of account creation.
			return user, nil
		}
	}
	return user, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// GetByUsername fetches a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// List returns a page of users ordered by creation time descending.
func (s *Service) List(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	list, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []User{}
	}
	return &ListUsersResponse{Users: list, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// Roles returns the user together with their role assignments.
func (s *Service) Roles(ctx context.Context, id int64) (*UserWithRoles, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.roleGraph.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserWithRoles{User: *user, Roles: details}, nil
}

// Permissions returns the user together with their effective permission set.
func (s *Service) Permissions(ctx context.Context, id int64) (*UserPermissions, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	codes, err := s.roleGraph.UserPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserPermissions{User: *user, Permissions: codes}, nil
}

// Update applies a patch. Username and email changes are collision-checked
// against every other live account.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	username := user.Username
	if req.Username != nil && *req.Username != user.Username {
		if existing, err := s.findByUsername(ctx, *req.Username); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, shared.Conflict("Username '%s' already exists", *req.Username)
		}
		username = *req.Username
	}

	email := user.Email
	if req.Email != nil && *req.Email != user.Email {
		if existing, err := s.findByEmail(ctx, *req.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, shared.Conflict("Email '%s' already exists", *req.Email)
		}
		email = *req.Email
	}

	fullName := user.FullName
	if req.FullName != nil {
		fullName = req.FullName
	}

	return s.repo.Update(ctx, id, username, email, fullName)
}

// ChangeStatus activates or deactivates an account. Deactivated accounts
// keep their assignments; the auth layer refuses their logins.
func (s *Service) ChangeStatus(ctx context.Context, id int64, isActive bool) (*User, error) {
	return s.repo.UpdateStatus(ctx, id, isActive)
}

// ResetPassword sets the account's password back to the configured default.
func (s *Service) ResetPassword(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// ChangePassword rotates the caller's own password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return shared.Invalid("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// Delete soft-deletes the account and strips its role assignments, so the
// resolver and the role enrichment reads stop seeing it immediately.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.roleGraph.RemoveUserRoles(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) findByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
