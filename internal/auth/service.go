package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/crewdeck/crewdeck/internal/rbac/assignments"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
	"github.com/crewdeck/crewdeck/internal/users"
)

// Directory is the slice of the user service the auth layer needs.
type Directory interface {
	Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
	Get(ctx context.Context, id int64) (*users.User, error)
	GetByUsername(ctx context.Context, username string) (*users.User, error)
}

// DefaultRoleSource lists the roles auto-assigned on registration.
type DefaultRoleSource interface {
	FindDefaultRoles(ctx context.Context) ([]roles.Role, error)
}

// RoleGraph assigns roles and resolves permission sets for principals.
type RoleGraph interface {
	Assign(ctx context.Context, userID, roleID int64, assignedBy *int64) (*assignments.Assignment, error)
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service wraps authentication business rules: credential checks, token
// issuance and the registration flow with its default-role assignment.
type Service struct {
	logger       *slog.Logger
	directory    Directory
	defaultRoles DefaultRoleSource
	roleGraph    RoleGraph
	tokens       *TokenManager
	refresh      *RefreshStore
	repo         Repository
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, directory Directory, defaultRoles DefaultRoleSource, roleGraph RoleGraph, tokens *TokenManager, refresh *RefreshStore, repo Repository) *Service {
	return &Service{
		logger:       logger,
		directory:    directory,
		defaultRoles: defaultRoles,
		roleGraph:    roleGraph,
		tokens:       tokens,
		refresh:      refresh,
		repo:         repo,
	}
}

// Register creates an account, assigns every default role unattributed and
// logs the new user straight in.
func (s *Service) Register(ctx context.Context, req RegisterRequest, ip, userAgent string) (*AuthResponse, error) {
	user, err := s.directory.Create(ctx, users.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}

	defaults, err := s.defaultRoles.FindDefaultRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, role := range defaults {
		if _, err := s.roleGraph.Assign(ctx, user.ID, role.ID, nil); err != nil {
			s.logger.Error("assign default role",
				slog.Int64("user_id", user.ID),
				slog.Int64("role_id", role.ID),
				slog.Any("error", err))
			return nil, err
		}
	}

	return s.issue(ctx, user, ip, userAgent)
}

// Login validates credentials and issues a token pair. Every failure mode
// collapses into the same invalid-credentials error so responses never
// reveal whether the username exists or the account is inactive.
func (s *Service) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*AuthResponse, error) {
	user, err := s.directory.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.issue(ctx, user, ip, userAgent)
}

// Refresh rotates a refresh token: the old one is revoked before the new
// pair is issued, so each token works exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*AuthResponse, error) {
	userID, err := s.refresh.Resolve(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.directory.Get(ctx, userID)
	if err != nil {
		return nil, shared.Unauthorized("Invalid or expired refresh token")
	}
	if !user.IsActive {
		return nil, shared.Unauthorized("Invalid or expired refresh token")
	}
	if err := s.revoke(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issue(ctx, user, ip, userAgent)
}

// Me returns the principal's account and effective permission set.
func (s *Service) Me(ctx context.Context, userID int64) (*MeResponse, error) {
	user, err := s.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.roleGraph.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{User: *user, Permissions: perms}, nil
}

// Logout revokes the refresh token. The access token stays valid until its
// expiry; it is short-lived by configuration.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.revoke(ctx, refreshToken)
}

func (s *Service) issue(ctx context.Context, user *users.User, ip, userAgent string) (*AuthResponse, error) {
	access, expiresAt, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiry, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSession(ctx, refresh, user.ID, refreshExpiry, ip, userAgent); err != nil {
		s.logger.Warn("record session", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return &AuthResponse{
		User: *user,
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiresAt,
		},
	}, nil
}

func (s *Service) revoke(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		s.logger.Warn("delete session", slog.Any("error", err))
	}
	return nil
}
