package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdeck/crewdeck/internal/platform/db"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Repository provides persistence for the user-role graph. WithTx yields a
// transaction-bound repository so reconciliations read and write under one
// snapshot.
type Repository interface {
	WithTx(ctx context.Context, fn func(Repository) error) error
	Get(ctx context.Context, userID, roleID int64) (*Assignment, error)
	ListByUser(ctx context.Context, userID int64) ([]Assignment, error)
	ListByUserAssigner(ctx context.Context, userID, assignerID int64) ([]Assignment, error)
	ListUnattributedByUser(ctx context.Context, userID int64) ([]Assignment, error)
	ListDetailsByUser(ctx context.Context, userID int64) ([]AssignmentDetail, error)
	ListUserViewsByRole(ctx context.Context, roleID int64) ([]roles.UserAssignmentView, error)
	Insert(ctx context.Context, userID, roleID int64, assignedBy *int64) (*Assignment, error)
	InsertMany(ctx context.Context, userID int64, roleIDs []int64, assignedBy *int64) error
	Delete(ctx context.Context, userID, roleID int64) error
	DeleteMany(ctx context.Context, userID int64, roleIDs []int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	UserPermissionCodes(ctx context.Context, userID int64) ([]string, error)
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

const assignmentColumns = `user_id, role_id, assigned_by, created_at`

func (r *repository) Get(ctx context.Context, userID, roleID int64) (*Assignment, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("Role %d is not assigned to user %d", roleID, userID)
		}
		return nil, fmt.Errorf("assignments: get: %w", err)
	}
	return a, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Assignment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+assignmentColumns+` FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list by user: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (r *repository) ListByUserAssigner(ctx context.Context, userID, assignerID int64) ([]Assignment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+assignmentColumns+` FROM user_roles WHERE user_id = $1 AND assigned_by = $2`,
		userID, assignerID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list by assigner: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (r *repository) ListUnattributedByUser(ctx context.Context, userID int64) ([]Assignment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+assignmentColumns+` FROM user_roles WHERE user_id = $1 AND assigned_by IS NULL`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list unattributed: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (r *repository) ListDetailsByUser(ctx context.Context, userID int64) ([]AssignmentDetail, error) {
	rows, err := r.q.Query(ctx,
		`SELECT ur.user_id, ur.role_id, ro.name, ro.description, ro.is_default, ur.assigned_by, ur.created_at
		 FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY ro.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list details: %w", err)
	}
	defer rows.Close()

	var details []AssignmentDetail
	for rows.Next() {
		var d AssignmentDetail
		if err := rows.Scan(&d.UserID, &d.RoleID, &d.Name, &d.Description, &d.IsDefault, &d.AssignedBy, &d.AssignedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repository) ListUserViewsByRole(ctx context.Context, roleID int64) ([]roles.UserAssignmentView, error) {
	rows, err := r.q.Query(ctx,
		`SELECT u.id, u.username, u.email, u.full_name, ur.assigned_by, ur.created_at
		 FROM user_roles ur
		 JOIN users u ON u.id = ur.user_id
		 WHERE ur.role_id = $1 AND u.deleted_at IS NULL
		 ORDER BY u.username`, roleID)
	if err != nil {
		return nil, fmt.Errorf("assignments: list users by role: %w", err)
	}
	defer rows.Close()

	var views []roles.UserAssignmentView
	for rows.Next() {
		var v roles.UserAssignmentView
		if err := rows.Scan(&v.UserID, &v.Username, &v.Email, &v.FullName, &v.AssignedBy, &v.AssignedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *repository) Insert(ctx context.Context, userID, roleID int64, assignedBy *int64) (*Assignment, error) {
	row := r.q.QueryRow(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_by) VALUES ($1, $2, $3) RETURNING `+assignmentColumns,
		userID, roleID, assignedBy)
	a, err := scanAssignment(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.Conflict("Role %d is already assigned to user %d", roleID, userID)
		}
		return nil, fmt.Errorf("assignments: insert: %w", err)
	}
	return a, nil
}

func (r *repository) InsertMany(ctx context.Context, userID int64, roleIDs []int64, assignedBy *int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_by)
		 SELECT $1, rid, $3 FROM unnest($2::bigint[]) AS rid`,
		userID, roleIDs, assignedBy)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.Conflict("One of the roles is already assigned to user %d", userID)
		}
		return fmt.Errorf("assignments: insert many: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, roleID int64) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("assignments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Role %d is not assigned to user %d", roleID, userID)
	}
	return nil
}

func (r *repository) DeleteMany(ctx context.Context, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = ANY($2)`, userID, roleIDs)
	if err != nil {
		return fmt.Errorf("assignments: delete many: %w", err)
	}
	return nil
}

func (r *repository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("assignments: delete by user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UserPermissionCodes resolves the user's effective permission set through
// the two join tables. DISTINCT performs the deduplication, so overlapping
// roles yield each code once.
func (r *repository) UserPermissionCodes(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT DISTINCT p.code
		 FROM user_roles ur
		 JOIN role_permissions rp ON rp.role_id = ur.role_id
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE ur.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("assignments: user permissions: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	if err := row.Scan(&a.UserID, &a.RoleID, &a.AssignedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAssignments(rows pgx.Rows) ([]Assignment, error) {
	var list []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.UserID, &a.RoleID, &a.AssignedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
