package permissions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdeck/crewdeck/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	perms  map[int64]*Permission
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{perms: make(map[int64]*Permission), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, code string, description *string) (*Permission, error) {
	for _, p := range m.perms {
		if p.Code == code {
			return nil, shared.Conflict("Permission with code '%s' already exists", code)
		}
	}
	now := time.Now()
	p := &Permission{ID: m.nextID, Code: code, Description: description, CreatedAt: now, UpdatedAt: now}
	m.perms[p.ID] = p
	m.nextID++
	return p, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return nil, shared.NotFound("Permission with ID %d not found", id)
	}
	return p, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (*Permission, error) {
	for _, p := range m.perms {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, shared.NotFound("Permission with code '%s' not found", code)
}

func (m *mockRepository) GetManyByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	var out []Permission
	for _, id := range ids {
		if p, ok := m.perms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) List(ctx context.Context, req ListPermissionsRequest) ([]Permission, int, error) {
	var out []Permission
	for _, p := range m.perms {
		if req.Code != nil && *req.Code != "" && !strings.Contains(p.Code, *req.Code) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	total := len(out)

	start := (req.Page - 1) * req.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + req.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, code string, description *string) (*Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return nil, shared.NotFound("Permission with ID %d not found", id)
	}
	p.Code = code
	p.Description = description
	p.UpdatedAt = time.Now()
	return p, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.perms[id]; !ok {
		return shared.NotFound("Permission with ID %d not found", id)
	}
	delete(m.perms, id)
	return nil
}

func strPtr(v string) *string { return &v }

// ============================================================================
// TESTS
// ============================================================================

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePermissionRequest{Code: "reports.view"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreatePermissionRequest{Code: "reports.view"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestFindByCodeAbsentIsNil(t *testing.T) {
	svc := NewService(newMockRepository())

	perm, err := svc.FindByCode(context.Background(), "does.not.exist")
	require.NoError(t, err)
	assert.Nil(t, perm)
}

func TestFindByIDsReturnsSubset(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	a, err := svc.Create(ctx, CreatePermissionRequest{Code: "reports.view"})
	require.NoError(t, err)

	found, err := svc.FindByIDs(ctx, []int64{a.ID, 404})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "reports.view", found[0].Code)
}

func TestListDefaultsAndFilter(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	for _, code := range []string{"reports.view", "reports.edit", "users.view"} {
		_, err := svc.Create(ctx, CreatePermissionRequest{Code: code})
		require.NoError(t, err)
	}

	// Zero page and limit fall back to page 1 and the catalog-sized limit.
	resp, err := svc.List(ctx, ListPermissionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Len(t, resp.Permissions, 3)

	resp, err = svc.List(ctx, ListPermissionsRequest{Code: strPtr("reports")})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
}

func TestUpdateCodeCollisionConflicts(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	a, err := svc.Create(ctx, CreatePermissionRequest{Code: "reports.view"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePermissionRequest{Code: "reports.edit"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, UpdatePermissionRequest{Code: strPtr("reports.edit")})
	assert.True(t, errors.Is(err, shared.ErrConflict))

	// Re-submitting the current code is not a collision.
	updated, err := svc.Update(ctx, a.ID, UpdatePermissionRequest{Code: strPtr("reports.view"), Description: strPtr("View reports")})
	require.NoError(t, err)
	assert.Equal(t, "reports.view", updated.Code)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "View reports", *updated.Description)
}

func TestDeleteMissingNotFound(t *testing.T) {
	svc := NewService(newMockRepository())
	err := svc.Delete(context.Background(), 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
