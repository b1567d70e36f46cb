package roles

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

// Repository provides persistence for roles.
type Repository interface {
	Create(ctx context.Context, name string, description *string, isDefault bool) (*Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	GetManyByIDs(ctx context.Context, ids []int64) ([]Role, error)
	GetDefaults(ctx context.Context) ([]Role, error)
	List(ctx context.Context, req ListRolesRequest) ([]Role, int, error)
	Update(ctx context.Context, id int64, name string, description *string, isDefault bool) (*Role, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const roleColumns = `id, name, description, is_default, created_at, updated_at`

func (r *repository) Create(ctx context.Context, name string, description *string, isDefault bool) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description, is_default) VALUES ($1, $2, $3) RETURNING `+roleColumns,
		name, description, isDefault)
	role, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Role with name '%s' already exists", name)
		}
		return nil, fmt.Errorf("roles: create: %w", err)
	}
	return role, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Role with ID %d not found", id)
		}
		return nil, fmt.Errorf("roles: get: %w", err)
	}
	return role, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Role with name '%s' not found", name)
		}
		return nil, fmt.Errorf("roles: get by name: %w", err)
	}
	return role, nil
}

func (r *repository) GetManyByIDs(ctx context.Context, ids []int64) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("roles: get many: %w", err)
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *repository) GetDefaults(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE is_default ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("roles: get defaults: %w", err)
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *repository) List(ctx context.Context, req ListRolesRequest) ([]Role, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Name != nil && *req.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+*req.Name+"%")
		argPos++
	}
	if req.IsDefault != nil {
		conditions = append(conditions, fmt.Sprintf("is_default = $%d", argPos))
		args = append(args, *req.IsDefault)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM roles %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM roles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		roleColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	list, err := collectRoles(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) Update(ctx context.Context, id int64, name string, description *string, isDefault bool) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, is_default = $4, updated_at = NOW() WHERE id = $1 RETURNING `+roleColumns,
		id, name, description, isDefault)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Role with ID %d not found", id)
		}
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Role with name '%s' already exists", name)
		}
		return nil, fmt.Errorf("roles: update: %w", err)
	}
	return role, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Role with ID %d not found", id)
	}
	return nil
}

func scanRole(row pgx.Row) (*Role, error) {
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	var list []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
