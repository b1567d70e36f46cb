package grants

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdeck/crewdeck/internal/rbac/permissions"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	grants map[string]*Grant
	codes  map[int64]string
}

func newMockRepository(codes map[int64]string) *mockRepository {
	return &mockRepository{
		grants: make(map[string]*Grant),
		codes:  codes,
	}
}

func grantKey(roleID, permissionID int64) string {
	return fmt.Sprintf("%d:%d", roleID, permissionID)
}

// WithTx snapshots the grant set and restores it when fn fails, mirroring
// the transactional rollback of the real repository.
func (m *mockRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	snapshot := make(map[string]*Grant, len(m.grants))
	for k, v := range m.grants {
		copied := *v
		snapshot[k] = &copied
	}
	if err := fn(m); err != nil {
		m.grants = snapshot
		return err
	}
	return nil
}

func (m *mockRepository) Get(ctx context.Context, roleID, permissionID int64) (*Grant, error) {
	g, ok := m.grants[grantKey(roleID, permissionID)]
	if !ok {
		return nil, shared.NotFound("Permission %d is not granted to role %d", permissionID, roleID)
	}
	return g, nil
}

func (m *mockRepository) ListByRole(ctx context.Context, roleID int64) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants {
		if g.RoleID == roleID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByRoleGranter(ctx context.Context, roleID, granterID int64) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants {
		if g.RoleID == roleID && g.GrantedBy != nil && *g.GrantedBy == granterID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockRepository) ListDetailsByRole(ctx context.Context, roleID int64) ([]GrantDetail, error) {
	var out []GrantDetail
	for _, g := range m.grants {
		if g.RoleID != roleID {
			continue
		}
		out = append(out, GrantDetail{
			RoleID:       g.RoleID,
			PermissionID: g.PermissionID,
			Code:         m.codes[g.PermissionID],
			GrantedBy:    g.GrantedBy,
			GrantedAt:    g.CreatedAt,
		})
	}
	return out, nil
}

func (m *mockRepository) ListRoleViewsByPermission(ctx context.Context, permissionID int64) ([]permissions.RoleGrantView, error) {
	var out []permissions.RoleGrantView
	for _, g := range m.grants {
		if g.PermissionID == permissionID {
			out = append(out, permissions.RoleGrantView{RoleID: g.RoleID, GrantedBy: g.GrantedBy, GrantedAt: g.CreatedAt})
		}
	}
	return out, nil
}

func (m *mockRepository) Insert(ctx context.Context, roleID, permissionID int64, grantedBy *int64) (*Grant, error) {
	key := grantKey(roleID, permissionID)
	if _, ok := m.grants[key]; ok {
		return nil, shared.Conflict("Permission %d is already granted to role %d", permissionID, roleID)
	}
	g := &Grant{RoleID: roleID, PermissionID: permissionID, GrantedBy: grantedBy, CreatedAt: time.Now()}
	m.grants[key] = g
	return g, nil
}

func (m *mockRepository) InsertMany(ctx context.Context, roleID int64, permissionIDs []int64, grantedBy *int64) error {
	for _, pid := range permissionIDs {
		if _, err := m.Insert(ctx, roleID, pid, grantedBy); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, roleID, permissionID int64) error {
	key := grantKey(roleID, permissionID)
	if _, ok := m.grants[key]; !ok {
		return shared.NotFound("Permission %d is not granted to role %d", permissionID, roleID)
	}
	delete(m.grants, key)
	return nil
}

func (m *mockRepository) DeleteMany(ctx context.Context, roleID int64, permissionIDs []int64) error {
	for _, pid := range permissionIDs {
		delete(m.grants, grantKey(roleID, pid))
	}
	return nil
}

func (m *mockRepository) DeleteByRole(ctx context.Context, roleID int64) (int64, error) {
	var removed int64
	for k, g := range m.grants {
		if g.RoleID == roleID {
			delete(m.grants, k)
			removed++
		}
	}
	return removed, nil
}

// ============================================================================
// STUB DIRECTORIES
// ============================================================================

type stubRoleDir struct {
	known map[int64]roles.Role
}

func (s *stubRoleDir) FindOne(ctx context.Context, id int64) (*roles.Role, error) {
	role, ok := s.known[id]
	if !ok {
		return nil, shared.NotFound("Role with ID %d not found", id)
	}
	return &role, nil
}

type stubPermDir struct {
	known map[int64]permissions.Permission
}

func (s *stubPermDir) FindOne(ctx context.Context, id int64) (*permissions.Permission, error) {
	perm, ok := s.known[id]
	if !ok {
		return nil, shared.NotFound("Permission with ID %d not found", id)
	}
	return &perm, nil
}

func (s *stubPermDir) FindByIDs(ctx context.Context, ids []int64) ([]permissions.Permission, error) {
	var out []permissions.Permission
	for _, id := range ids {
		if perm, ok := s.known[id]; ok {
			out = append(out, perm)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepository) {
	codes := map[int64]string{10: "reports.view", 20: "reports.edit", 30: "reports.delete"}
	repo := newMockRepository(codes)
	roleDir := &stubRoleDir{known: map[int64]roles.Role{
		1: {ID: 1, Name: "editor"},
		2: {ID: 2, Name: "viewer"},
	}}
	permDir := &stubPermDir{known: map[int64]permissions.Permission{}}
	for id, code := range codes {
		permDir.known[id] = permissions.Permission{ID: id, Code: code}
	}
	return NewService(repo, roleDir, permDir), repo
}

func permissionIDs(details []GrantDetail) []int64 {
	out := make([]int64, 0, len(details))
	for _, d := range details {
		out = append(out, d.PermissionID)
	}
	return out
}

func ptr(v int64) *int64 { return &v }

// ============================================================================
// TESTS
// ============================================================================

func TestGrantDuplicatePairConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, 1, 10, ptr(99))
	require.NoError(t, err)

	_, err = svc.Grant(ctx, 1, 10, ptr(99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	require.NoError(t, svc.Revoke(ctx, 1, 10))

	_, err = svc.Grant(ctx, 1, 10, ptr(99))
	assert.NoError(t, err)
}

func TestGrantUnknownRoleOrPermission(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, 404, 10, nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = svc.Grant(ctx, 1, 404, nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGrantManyReconcilesWithinGranterScope(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	details, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, permissionIDs(details))

	details, err = svc.GrantMany(ctx, 1, []int64{20, 30}, ptr(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{20, 30}, permissionIDs(details))
}

func TestGrantManyLeavesOtherGrantersUntouched(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, 1, 30, ptr(2))
	require.NoError(t, err)

	details, err := svc.GrantMany(ctx, 1, []int64{10}, ptr(1))
	require.NoError(t, err)
	// admin 2's grant on 30 survives admin 1's reconciliation.
	assert.ElementsMatch(t, []int64{10, 30}, permissionIDs(details))
}

func TestGrantManyUnattributedDiffsWholeSet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, 1, 10, ptr(1))
	require.NoError(t, err)
	_, err = svc.Grant(ctx, 1, 20, nil)
	require.NoError(t, err)

	details, err := svc.GrantMany(ctx, 1, []int64{30}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{30}, permissionIDs(details))
}

func TestGrantManyAllAlreadyGrantedIsNoop(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)

	details, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, permissionIDs(details))
}

func TestGrantManyMissingPermissionCreatesNothing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.GrantMany(ctx, 1, []int64{10, 404}, ptr(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Empty(t, repo.grants)
}

func TestSyncExactIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.SyncExact(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)
	second, err := svc.SyncExact(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)

	assert.ElementsMatch(t, permissionIDs(first), permissionIDs(second))
	assert.ElementsMatch(t, []int64{10, 20}, permissionIDs(second))
}

func TestSyncExactDiscardsAttribution(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, 1, 10, ptr(2))
	require.NoError(t, err)

	_, err = svc.SyncExact(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)

	g, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, g.GrantedBy)
	assert.Equal(t, int64(1), *g.GrantedBy)
}

func TestSyncExactEmptyTargetClearsGrants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)

	details, err := svc.SyncExact(ctx, 1, nil, ptr(1))
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestSyncExactBadTargetKeepsOriginalSet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)

	_, err = svc.SyncExact(ctx, 1, []int64{10, 404}, ptr(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	details, err := svc.ListByRole(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, permissionIDs(details))
}

func TestRevokeMissingPairNotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Revoke(context.Background(), 1, 10)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestRevokeAllIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RevokeAll(ctx, 1))

	_, err := svc.GrantMany(ctx, 1, []int64{10, 20}, ptr(1))
	require.NoError(t, err)
	require.NoError(t, svc.RevokeAll(ctx, 1))

	details, err := svc.ListByRole(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, details)
}
