package roles

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
	roles  map[int64]*Role
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{roles: make(map[int64]*Role), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, name string, description *string, isDefault bool) (*Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return nil, shared.Conflict("Role with name '%s' already exists", name)
		}
	}
	now := time.Now()
	r := &Role{ID: m.nextID, Name: name, Description: description, IsDefault: isDefault, CreatedAt: now, UpdatedAt: now}
	m.roles[r.ID] = r
	m.nextID++
	return r, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, shared.NotFound("Role with ID %d not found", id)
	}
	return r, nil
}

func (m *mockRepository) GetByName(ctx context.Context, name string) (*Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, shared.NotFound("Role with name '%s' not found", name)
}

func (m *mockRepository) GetManyByIDs(ctx context.Context, ids []int64) ([]Role, error) {
	var out []Role
	for _, id := range ids {
		if r, ok := m.roles[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRepository) GetDefaults(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, r := range m.roles {
		if r.IsDefault {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRolesRequest) ([]Role, int, error) {
	var out []Role
	for _, r := range m.roles {
		if req.Name != nil && *req.Name != "" && !strings.Contains(r.Name, *req.Name) {
			continue
		}
		if req.IsDefault != nil && r.IsDefault != *req.IsDefault {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
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

func (m *mockRepository) Update(ctx context.Context, id int64, name string, description *string, isDefault bool) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, shared.NotFound("Role with ID %d not found", id)
	}
	r.Name = name
	r.Description = description
	r.IsDefault = isDefault
	r.UpdatedAt = time.Now()
	return r, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return shared.NotFound("Role with ID %d not found", id)
	}
	delete(m.roles, id)
	return nil
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

// ============================================================================
// TESTS
// ============================================================================

func TestCreateDuplicateNameConflicts(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateRoleRequest{Name: "editor"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestCreateDefaultsToNonDefault(t *testing.T) {
	svc := NewService(newMockRepository())

	role, err := svc.Create(context.Background(), CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	assert.False(t, role.IsDefault)
}

func TestFindDefaultRoles(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRoleRequest{Name: "admin"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "crew", IsDefault: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "trial", IsDefault: boolPtr(true)})
	require.NoError(t, err)

	defaults, err := svc.FindDefaultRoles(ctx)
	require.NoError(t, err)
	require.Len(t, defaults, 2)
	assert.Equal(t, "crew", defaults[0].Name)
	assert.Equal(t, "trial", defaults[1].Name)
}

func TestFindDefaultRolesEmpty(t *testing.T) {
	svc := NewService(newMockRepository())

	defaults, err := svc.FindDefaultRoles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, defaults)
}

func TestListFiltersByDefaultFlag(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRoleRequest{Name: "admin"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "crew", IsDefault: boolPtr(true)})
	require.NoError(t, err)

	resp, err := svc.List(ctx, ListRolesRequest{IsDefault: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "crew", resp.Roles[0].Name)
}

func TestUpdateNameCollisionConflicts(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	editor, err := svc.Create(ctx, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "viewer"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, editor.ID, UpdateRoleRequest{Name: strPtr("viewer")})
	assert.True(t, errors.Is(err, shared.ErrConflict))

	// Flipping the default flag without renaming is fine.
	updated, err := svc.Update(ctx, editor.ID, UpdateRoleRequest{IsDefault: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "editor", updated.Name)
	assert.True(t, updated.IsDefault)
}

func TestDeleteMissingNotFound(t *testing.T) {
	svc := NewService(newMockRepository())
	err := svc.Delete(context.Background(), 404)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
