package users

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

// Repository provides persistence for the user directory. Every lookup
// excludes soft-deleted rows.
type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string, fullName *string) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, id int64) error
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
	Update(ctx context.Context, id int64, username, email string, fullName *string) (*User, error)
	UpdateStatus(ctx context.Context, id int64, isActive bool) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SoftDelete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, username, email, full_name, password_hash, is_active, created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, username, email, passwordHash string, fullName *string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, full_name)
		 VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		username, email, passwordHash, fullName)
	u, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Username or email already exists")
		}
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return u, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("User with ID %d not found", id)
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND deleted_at IS NULL`, username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("User with username '%s' not found", username)
		}
		return nil, fmt.Errorf("users: get by username: %w", err)
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("User with email '%s' not found", email)
		}
		return nil, fmt.Errorf("users: get by email: %w", err)
	}
	return u, nil
}

// Exists satisfies the assignment graph's user check without loading the
// full row.
func (r *repository) Exists(ctx context.Context, id int64) error {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&found)
	if err != nil {
		return fmt.Errorf("users: exists: %w", err)
	}
	if !found {
		return shared.NotFound("User with ID %d not found", id)
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argPos := 1

	if req.Username != nil && *req.Username != "" {
		conditions = append(conditions, fmt.Sprintf("username ILIKE $%d", argPos))
		args = append(args, "%"+*req.Username+"%")
		argPos++
	}
	if req.Email != nil && *req.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", argPos))
		args = append(args, "%"+*req.Email+"%")
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) Update(ctx context.Context, id int64, username, email string, fullName *string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET username = $2, email = $3, full_name = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL RETURNING `+userColumns,
		id, username, email, fullName)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("User with ID %d not found", id)
		}
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Username or email already exists")
		}
		return nil, fmt.Errorf("users: update: %w", err)
	}
	return u, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, isActive bool) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL RETURNING `+userColumns,
		id, isActive)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("User with ID %d not found", id)
		}
		return nil, fmt.Errorf("users: update status: %w", err)
	}
	return u, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("User with ID %d not found", id)
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("User with ID %d not found", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
