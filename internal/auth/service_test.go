package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewdeck/crewdeck/internal/rbac/assignments"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
	"github.com/crewdeck/crewdeck/internal/users"
)

// ============================================================================
// STUBS
// ============================================================================

type stubDirectory struct {
	byID       map[int64]*users.User
	byUsername map[string]*users.User
	nextID     int64
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		byID:       make(map[int64]*users.User),
		byUsername: make(map[string]*users.User),
		nextID:     1,
	}
}

func (s *stubDirectory) add(username, password string, active bool) *users.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &users.User{
		ID:           s.nextID,
		Username:     username,
		Email:        username + "@crewdeck.local",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	s.byID[u.ID] = u
	s.byUsername[u.Username] = u
	s.nextID++
	return u
}

func (s *stubDirectory) Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	if _, ok := s.byUsername[req.Username]; ok {
		return nil, shared.Conflict("Username '%s' already exists", req.Username)
	}
	return s.add(req.Username, req.Password, true), nil
}

func (s *stubDirectory) Get(ctx context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.NotFound("User with ID %d not found", id)
	}
	return u, nil
}

func (s *stubDirectory) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return nil, shared.NotFound("User with username '%s' not found", username)
	}
	return u, nil
}

type stubDefaultRoles struct {
	defaults []roles.Role
}

func (s *stubDefaultRoles) FindDefaultRoles(ctx context.Context) ([]roles.Role, error) {
	return s.defaults, nil
}

type stubRoleGraph struct {
	assigned map[int64][]int64
	perms    map[int64][]string
}

func (s *stubRoleGraph) Assign(ctx context.Context, userID, roleID int64, assignedBy *int64) (*assignments.Assignment, error) {
	if assignedBy != nil {
		return nil, errors.New("registration assignments must be unattributed")
	}
	s.assigned[userID] = append(s.assigned[userID], roleID)
	return &assignments.Assignment{UserID: userID, RoleID: roleID}, nil
}

func (s *stubRoleGraph) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms[userID], nil
}

type stubSessionRepo struct {
	sessions map[string]int64
}

func (s *stubSessionRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, userAgent string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubSessionRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}

type authFixture struct {
	svc       *Service
	directory *stubDirectory
	roleGraph *stubRoleGraph
	sessions  *stubSessionRepo
}

func newAuthFixture(t *testing.T, defaults ...roles.Role) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	directory := newStubDirectory()
	roleGraph := &stubRoleGraph{assigned: make(map[int64][]int64), perms: make(map[int64][]string)}
	sessions := &stubSessionRepo{sessions: make(map[string]int64)}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		logger,
		directory,
		&stubDefaultRoles{defaults: defaults},
		roleGraph,
		NewTokenManager("test-secret", "crewdeck", 15*time.Minute),
		NewRefreshStore(client, time.Hour),
		sessions,
	)
	return &authFixture{svc: svc, directory: directory, roleGraph: roleGraph, sessions: sessions}
}

// ============================================================================
// TESTS
// ============================================================================

func TestRegisterAssignsDefaultRolesUnattributed(t *testing.T) {
	fx := newAuthFixture(t,
		roles.Role{ID: 1, Name: "crew", IsDefault: true},
		roles.Role{ID: 2, Name: "trial", IsDefault: true},
	)
	ctx := context.Background()

	resp, err := fx.svc.Register(ctx, RegisterRequest{
		Username: "nguyen", Email: "nguyen@crewdeck.local", Password: "s3cure-pass",
	}, "127.0.0.1", "go-test")
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{1, 2}, fx.roleGraph.assigned[resp.User.ID])
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, resp.User.ID, fx.sessions.sessions[resp.Tokens.RefreshToken])
}

func TestLoginFailureModesCollapse(t *testing.T) {
	fx := newAuthFixture(t)
	fx.directory.add("nguyen", "s3cure-pass", true)
	fx.directory.add("dormant", "s3cure-pass", false)
	ctx := context.Background()

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"unknown username", LoginRequest{Username: "ghost", Password: "s3cure-pass"}},
		{"wrong password", LoginRequest{Username: "nguyen", Password: "wrong"}},
		{"inactive account", LoginRequest{Username: "dormant", Password: "s3cure-pass"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Login(ctx, tc.req, "127.0.0.1", "go-test")
			assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}
}

func TestLoginIssuesWorkingTokenPair(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.directory.add("nguyen", "s3cure-pass", true)
	ctx := context.Background()

	resp, err := fx.svc.Login(ctx, LoginRequest{Username: "nguyen", Password: "s3cure-pass"}, "127.0.0.1", "go-test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)

	claims, err := NewTokenManager("test-secret", "crewdeck", 15*time.Minute).Parse(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestRefreshRotatesTokenOnce(t *testing.T) {
	fx := newAuthFixture(t)
	fx.directory.add("nguyen", "s3cure-pass", true)
	ctx := context.Background()

	first, err := fx.svc.Login(ctx, LoginRequest{Username: "nguyen", Password: "s3cure-pass"}, "127.0.0.1", "go-test")
	require.NoError(t, err)

	second, err := fx.svc.Refresh(ctx, first.Tokens.RefreshToken, "127.0.0.1", "go-test")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	// The consumed token is dead.
	_, err = fx.svc.Refresh(ctx, first.Tokens.RefreshToken, "127.0.0.1", "go-test")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.directory.add("nguyen", "s3cure-pass", true)
	ctx := context.Background()

	resp, err := fx.svc.Login(ctx, LoginRequest{Username: "nguyen", Password: "s3cure-pass"}, "127.0.0.1", "go-test")
	require.NoError(t, err)

	u.IsActive = false
	_, err = fx.svc.Refresh(ctx, resp.Tokens.RefreshToken, "127.0.0.1", "go-test")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	fx := newAuthFixture(t)
	fx.directory.add("nguyen", "s3cure-pass", true)
	ctx := context.Background()

	resp, err := fx.svc.Login(ctx, LoginRequest{Username: "nguyen", Password: "s3cure-pass"}, "127.0.0.1", "go-test")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Logout(ctx, resp.Tokens.RefreshToken))
	assert.Empty(t, fx.sessions.sessions)

	_, err = fx.svc.Refresh(ctx, resp.Tokens.RefreshToken, "127.0.0.1", "go-test")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestMeReturnsEffectivePermissions(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.directory.add("nguyen", "s3cure-pass", true)
	fx.roleGraph.perms[u.ID] = []string{"role.view", "users.view"}

	me, err := fx.svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.User.ID)
	assert.ElementsMatch(t, []string{"role.view", "users.view"}, me.Permissions)
}
