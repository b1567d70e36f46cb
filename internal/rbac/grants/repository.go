package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdeck/crewdeck/internal/platform/db"
	"github.com/crewdeck/crewdeck/internal/rbac/permissions"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Repository provides persistence for the role-permission graph. WithTx
// yields a transaction-bound repository so reconciliations read and write
// under one snapshot.
type Repository interface {
	WithTx(ctx context.Context, fn func(Repository) error) error
	Get(ctx context.Context, roleID, permissionID int64) (*Grant, error)
	ListByRole(ctx context.Context, roleID int64) ([]Grant, error)
	ListByRoleGranter(ctx context.Context, roleID, granterID int64) ([]Grant, error)
	ListDetailsByRole(ctx context.Context, roleID int64) ([]GrantDetail, error)
	ListRoleViewsByPermission(ctx context.Context, permissionID int64) ([]permissions.RoleGrantView, error)
	Insert(ctx context.Context, roleID, permissionID int64, grantedBy *int64) (*Grant, error)
	InsertMany(ctx context.Context, roleID int64, permissionIDs []int64, grantedBy *int64) error
	Delete(ctx context.Context, roleID, permissionID int64) error
	DeleteMany(ctx context.Context, roleID int64, permissionIDs []int64) error
	DeleteByRole(ctx context.Context, roleID int64) (int64, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	q    querier
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, q: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&repository{pool: r.pool, q: tx})
	})
}

const grantColumns = `role_id, permission_id, granted_by, created_at`

func (r *repository) Get(ctx context.Context, roleID, permissionID int64) (*Grant, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Permission %d is not granted to role %d", permissionID, roleID)
		}
		return nil, fmt.Errorf("grants: get: %w", err)
	}
	return g, nil
}

func (r *repository) ListByRole(ctx context.Context, roleID int64) ([]Grant, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+grantColumns+` FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, fmt.Errorf("grants: list by role: %w", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

func (r *repository) ListByRoleGranter(ctx context.Context, roleID, granterID int64) ([]Grant, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+grantColumns+` FROM role_permissions WHERE role_id = $1 AND granted_by = $2`,
		roleID, granterID)
	if err != nil {
		return nil, fmt.Errorf("grants: list by granter: %w", err)
	}
	defer rows.Close()
	return collectGrants(rows)
}

func (r *repository) ListDetailsByRole(ctx context.Context, roleID int64) ([]GrantDetail, error) {
	rows, err := r.q.Query(ctx,
		`SELECT rp.role_id, rp.permission_id, p.code, p.description, rp.granted_by, rp.created_at
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.code`, roleID)
	if err != nil {
		return nil, fmt.Errorf("grants: list details: %w", err)
	}
	defer rows.Close()

	var details []GrantDetail
	for rows.Next() {
		var d GrantDetail
		if err := rows.Scan(&d.RoleID, &d.PermissionID, &d.Code, &d.Description, &d.GrantedBy, &d.GrantedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repository) ListRoleViewsByPermission(ctx context.Context, permissionID int64) ([]permissions.RoleGrantView, error) {
	rows, err := r.q.Query(ctx,
		`SELECT ro.id, ro.name, ro.description, ro.is_default, rp.granted_by, rp.created_at
		 FROM role_permissions rp
		 JOIN roles ro ON ro.id = rp.role_id
		 WHERE rp.permission_id = $1
		 ORDER BY ro.name`, permissionID)
	if err != nil {
		return nil, fmt.Errorf("grants: list roles by permission: %w", err)
	}
	defer rows.Close()

	var views []permissions.RoleGrantView
	for rows.Next() {
		var v permissions.RoleGrantView
		if err := rows.Scan(&v.RoleID, &v.Name, &v.Description, &v.IsDefault, &v.GrantedBy, &v.GrantedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *repository) Insert(ctx context.Context, roleID, permissionID int64, grantedBy *int64) (*Grant, error) {
	row := r.q.QueryRow(ctx,
		`INSERT INTO role_permissions (role_id, permission_id, granted_by) VALUES ($1, $2, $3) RETURNING `+grantColumns,
		roleID, permissionID, grantedBy)
	g, err := scanGrant(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Permission %d is already granted to role %d", permissionID, roleID)
		}
		return nil, fmt.Errorf("grants: insert: %w", err)
	}
	return g, nil
}

func (r *repository) InsertMany(ctx context.Context, roleID int64, permissionIDs []int64, grantedBy *int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id, granted_by)
		 SELECT $1, pid, $3 FROM unnest($2::bigint[]) AS pid`,
		roleID, permissionIDs, grantedBy)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.Conflict("One of the permissions is already granted to role %d", roleID)
		}
		return fmt.Errorf("grants: insert many: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, roleID, permissionID int64) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	if err != nil {
		return fmt.Errorf("grants: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Permission %d is not granted to role %d", permissionID, roleID)
	}
	return nil
}

func (r *repository) DeleteMany(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = ANY($2)`,
		roleID, permissionIDs)
	if err != nil {
		return fmt.Errorf("grants: delete many: %w", err)
	}
	return nil
}

func (r *repository) DeleteByRole(ctx context.Context, roleID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return 0, fmt.Errorf("grants: delete by role: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanGrant(row pgx.Row) (*Grant, error) {
	var g Grant
	if err := row.Scan(&g.RoleID, &g.PermissionID, &g.GrantedBy, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGrants(rows pgx.Rows) ([]Grant, error) {
	var list []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.RoleID, &g.PermissionID, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
