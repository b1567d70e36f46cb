package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// RoleDirectory validates role references for the assignment graph.
type RoleDirectory interface {
	FindOne(ctx context.Context, id int64) (*roles.Role, error)
	FindByIDs(ctx context.Context, ids []int64) ([]roles.Role, error)
}

// UserDirectory checks user existence. Satisfied by the users repository;
// soft-deleted users do not exist for assignment purposes.
type UserDirectory interface {
	Exists(ctx context.Context, id int64) error
}

// Service owns the user-role graph and the permission resolver. AssignMany
// reconciles scoped by attribution, with the unattributed branch diffing
// only against unattributed assignments; Sync replaces the whole set
// regardless of attribution. The two are deliberately not unified.
type Service struct {
	repo  Repository
	roles RoleDirectory
	users UserDirectory
}

// NewService builds a Service instance.
func NewService(repo Repository, roleDir RoleDirectory, userDir UserDirectory) *Service {
	return &Service{repo: repo, roles: roleDir, users: userDir}
}

// Assign creates a single assignment. Both sides must exist and the pair
// must not already be assigned.
func (s *Service) Assign(ctx context.Context, userID, roleID int64, assignedBy *int64) (*Assignment, error) {
	if err := s.users.Exists(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, userID, roleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.Conflict("Role %d is already assigned to user %d", roleID, userID)
	}
	return s.repo.Insert(ctx, userID, roleID, assignedBy)
}

// AssignMany reconciles the user's assignment set toward roleIDs, scoped by
// attribution. With an assigner, only that assigner's previous assignments
// are diffed. Without one, only unattributed assignments are diffed;
// attributed assignments stay untouched either way. A diff yielding no work
// is a no-op success returning the current set.
func (s *Service) AssignMany(ctx context.Context, userID int64, roleIDs []int64, assignedBy *int64) ([]AssignmentDetail, error) {
	if err := s.users.Exists(ctx, userID); err != nil {
		return nil, err
	}
	target, err := s.resolveTargets(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		var existing []Assignment
		var listErr error
		if assignedBy != nil {
			existing, listErr = tx.ListByUserAssigner(ctx, userID, *assignedBy)
		} else {
			existing, listErr = tx.ListUnattributedByUser(ctx, userID)
		}
		if listErr != nil {
			return listErr
		}

		current := make(map[int64]struct{}, len(existing))
		for _, a := range existing {
			current[a.RoleID] = struct{}{}
		}

		var toRemove []int64
		for _, a := range existing {
			if _, keep := target[a.RoleID]; !keep {
				toRemove = append(toRemove, a.RoleID)
			}
		}
		var toAdd []int64
		for rid := range target {
			if _, have := current[rid]; !have {
				toAdd = append(toAdd, rid)
			}
		}

		if err := tx.DeleteMany(ctx, userID, toRemove); err != nil {
			return err
		}
		return tx.InsertMany(ctx, userID, toAdd, assignedBy)
	})
	if err != nil {
		return nil, err
	}
	return s.ListByUser(ctx, userID)
}

// Remove deletes a single assignment. Missing pairs are a NotFound, not a
// no-op.
func (s *Service) Remove(ctx context.Context, userID, roleID int64) error {
	if _, err := s.repo.Get(ctx, userID, roleID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, roleID)
}

// RemoveAllForUser strips every assignment from the user. Idempotent: an
// empty assignment set is not an error.
func (s *Service) RemoveAllForUser(ctx context.Context, userID int64) error {
	if err := s.users.Exists(ctx, userID); err != nil {
		return err
	}
	_, err := s.repo.DeleteByUser(ctx, userID)
	return err
}

// RemoveUserRoles is the cleanup hook used by user deletion. It skips the
// existence check, so it stays safe to call for a user mid-removal, and
// reports true even when there was nothing to delete.
func (s *Service) RemoveUserRoles(ctx context.Context, userID int64) (bool, error) {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// Sync replaces the user's entire assignment set with roleIDs, discarding
// previous attribution. The delete, the target validation and the insert
// run in one transaction, so a bad target id leaves the original set in
// place. An empty target is legal and leaves the user with zero roles.
func (s *Service) Sync(ctx context.Context, userID int64, roleIDs []int64, assignedBy *int64) ([]AssignmentDetail, error) {
	if err := s.users.Exists(ctx, userID); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		target, err := s.resolveTargets(ctx, roleIDs)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(target))
		for rid := range target {
			ids = append(ids, rid)
		}
		return tx.InsertMany(ctx, userID, ids, assignedBy)
	})
	if err != nil {
		return nil, err
	}
	return s.ListByUser(ctx, userID)
}

// ListByUser returns the user's assignments joined with their roles.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]AssignmentDetail, error) {
	if err := s.users.Exists(ctx, userID); err != nil {
		return nil, err
	}
	details, err := s.repo.ListDetailsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []AssignmentDetail{}
	}
	return details, nil
}

// ListByRole returns every user holding the role.
func (s *Service) ListByRole(ctx context.Context, roleID int64) ([]roles.UserAssignmentView, error) {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}
	return s.UsersByRole(ctx, roleID)
}

// UsersByRole backs the role's enrichment read.
func (s *Service) UsersByRole(ctx context.Context, roleID int64) ([]roles.UserAssignmentView, error) {
	views, err := s.repo.ListUserViewsByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []roles.UserAssignmentView{}
	}
	return views, nil
}

// UserPermissions computes the user's effective permission set as a
// deduplicated union across all assigned roles. Storage is re-read on every
// call; there is no decision cache to invalidate.
func (s *Service) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	if err := s.users.Exists(ctx, userID); err != nil {
		return nil, err
	}
	codes, err := s.repo.UserPermissionCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// CheckPermission tests membership of a single code in the user's effective
// permission set.
func (s *Service) CheckPermission(ctx context.Context, userID int64, code string) (bool, error) {
	codes, err := s.UserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// resolveTargets dedupes ids and verifies every one resolves to a real
// role. A single missing id fails the whole call.
func (s *Service) resolveTargets(ctx context.Context, roleIDs []int64) (map[int64]struct{}, error) {
	unique := make([]int64, 0, len(roleIDs))
	target := make(map[int64]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		if _, ok := target[rid]; ok {
			continue
		}
		target[rid] = struct{}{}
		unique = append(unique, rid)
	}
	if len(unique) == 0 {
		return target, nil
	}

	found, err := s.roles.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		known := make(map[int64]struct{}, len(found))
		for _, ro := range found {
			known[ro.ID] = struct{}{}
		}
		var missing []int64
		for _, rid := range unique {
			if _, ok := known[rid]; !ok {
				missing = append(missing, rid)
			}
		}
		return nil, shared.NotFound("Roles with IDs %s not found", formatIDs(missing))
	}
	return target, nil
}

func formatIDs(ids []int64) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", id)
	}
	return out
}
