package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdeck/crewdeck/internal/platform/db"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Repository provides persistence for the permission catalog.
type Repository interface {
	Create(ctx context.Context, code string, description *string) (*Permission, error)
	Get(ctx context.Context, id int64) (*Permission, error)
	GetByCode(ctx context.Context, code string) (*Permission, error)
	GetManyByIDs(ctx context.Context, ids []int64) ([]Permission, error)
	List(ctx context.Context, req ListPermissionsRequest) ([]Permission, int, error)
	Update(ctx context.Context, id int64, code string, description *string) (*Permission, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const permissionColumns = `id, code, description, created_at, updated_at`

func (r *repository) Create(ctx context.Context, code string, description *string) (*Permission, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (code, description) VALUES ($1, $2) RETURNING `+permissionColumns,
		code, description)
	perm, err := scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Permission with code '%s' already exists", code)
		}
		return nil, fmt.Errorf("permissions: create: %w", err)
	}
	return perm, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Permission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	perm, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Permission with ID %d not found", id)
		}
		return nil, fmt.Errorf("permissions: get: %w", err)
	}
	return perm, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Permission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE code = $1`, code)
	perm, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Permission with code '%s' not found", code)
		}
		return nil, fmt.Errorf("permissions: get by code: %w", err)
	}
	return perm, nil
}

func (r *repository) GetManyByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = ANY($1) ORDER BY code`, ids)
	if err != nil {
		return nil, fmt.Errorf("permissions: get many: %w", err)
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (r *repository) List(ctx context.Context, req ListPermissionsRequest) ([]Permission, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Code != nil && *req.Code != "" {
		conditions = append(conditions, fmt.Sprintf("code ILIKE $%d", argPos))
		args = append(args, "%"+*req.Code+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM permissions %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("permissions: count: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM permissions %s ORDER BY code ASC LIMIT $%d OFFSET $%d`,
		permissionColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("permissions: list: %w", err)
	}
	defer rows.Close()

	perms, err := collectPermissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return perms, total, nil
}

func (r *repository) Update(ctx context.Context, id int64, code string, description *string) (*Permission, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE permissions SET code = $2, description = $3, updated_at = NOW() WHERE id = $1 RETURNING `+permissionColumns,
		id, code, description)
	perm, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Permission with ID %d not found", id)
		}
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Permission with code '%s' already exists", code)
		}
		return nil, fmt.Errorf("permissions: update: %w", err)
	}
	return perm, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("permissions: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Permission with ID %d not found", id)
	}
	return nil
}

func scanPermission(row pgx.Row) (*Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Code, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}
