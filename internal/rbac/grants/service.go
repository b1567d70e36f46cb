package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewdeck/crewdeck/internal/rbac/permissions"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// RoleDirectory validates role references for the grant graph.
type RoleDirectory interface {
	FindOne(ctx context.Context, id int64) (*roles.Role, error)
}

// PermissionDirectory validates permission references for the grant graph.
type PermissionDirectory interface {
	FindOne(ctx context.Context, id int64) (*permissions.Permission, error)
	FindByIDs(ctx context.Context, ids []int64) ([]permissions.Permission, error)
}

// Service owns the role-permission graph. Single-pair operations are
// imperative; GrantMany reconciles scoped by attribution and SyncExact
// replaces the whole set regardless of attribution.
type Service struct {
	repo  Repository
	roles RoleDirectory
	perms PermissionDirectory
}

// NewService builds a Service instance.
func NewService(repo Repository, roleDir RoleDirectory, permDir PermissionDirectory) *Service {
	return &Service{repo: repo, roles: roleDir, perms: permDir}
}

// Grant creates a single grant. Both sides must exist and the pair must not
// already be granted.
func (s *Service) Grant(ctx context.Context, roleID, permissionID int64, grantedBy *int64) (*Grant, error) {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}
	if _, err := s.perms.FindOne(ctx, permissionID); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, roleID, permissionID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.Conflict("Permission %d is already granted to role %d", permissionID, roleID)
	}
	return s.repo.Insert(ctx, roleID, permissionID, grantedBy)
}

// GrantMany reconciles the role's grant set toward permissionIDs, scoped by
// attribution. With a granter, only that granter's previous grants are
// diffed; grants by other principals and unattributed grants stay untouched.
// Without a granter, the diff runs against every existing grant. When the
// diff yields no work the call is a no-op success returning the current set.
func (s *Service) GrantMany(ctx context.Context, roleID int64, permissionIDs []int64, grantedBy *int64) ([]GrantDetail, error) {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}
	target, err := s.resolveTargets(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		var existing []Grant
		var listErr error
		if grantedBy != nil {
			existing, listErr = tx.ListByRoleGranter(ctx, roleID, *grantedBy)
		} else {
			existing, listErr = tx.ListByRole(ctx, roleID)
		}
		if listErr != nil {
			return listErr
		}

		current := make(map[int64]struct{}, len(existing))
		for _, g := range existing {
			current[g.PermissionID] = struct{}{}
		}

		var toRemove []int64
		for _, g := range existing {
			if _, keep := target[g.PermissionID]; !keep {
				toRemove = append(toRemove, g.PermissionID)
			}
		}
		var toAdd []int64
		for pid := range target {
			if _, have := current[pid]; !have {
				toAdd = append(toAdd, pid)
			}
		}

		if err := tx.DeleteMany(ctx, roleID, toRemove); err != nil {
			return err
		}
		return tx.InsertMany(ctx, roleID, toAdd, grantedBy)
	})
	if err != nil {
		return nil, err
	}
	return s.ListByRole(ctx, roleID)
}

// Revoke removes a single grant. Missing pairs are a NotFound, not a no-op.
func (s *Service) Revoke(ctx context.Context, roleID, permissionID int64) error {
	if _, err := s.repo.Get(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, roleID, permissionID)
}

// RevokeAll strips every grant from the role. Idempotent: an empty grant set
// is not an error.
func (s *Service) RevokeAll(ctx context.Context, roleID int64) error {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return err
	}
	_, err := s.repo.DeleteByRole(ctx, roleID)
	return err
}

// SyncExact replaces the role's entire grant set with permissionIDs,
// discarding previous attribution. The delete, the target validation and the
// insert run in one transaction, so a bad target id leaves the original set
// in place. An empty target is legal and leaves the role with zero grants.
func (s *Service) SyncExact(ctx context.Context, roleID int64, permissionIDs []int64, grantedBy *int64) ([]GrantDetail, error) {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.DeleteByRole(ctx, roleID); err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		target, err := s.resolveTargets(ctx, permissionIDs)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(target))
		for pid := range target {
			ids = append(ids, pid)
		}
		return tx.InsertMany(ctx, roleID, ids, grantedBy)
	})
	if err != nil {
		return nil, err
	}
	return s.ListByRole(ctx, roleID)
}

// ListByRole returns the role's grants joined with their permissions.
func (s *Service) ListByRole(ctx context.Context, roleID int64) ([]GrantDetail, error) {
	if _, err := s.roles.FindOne(ctx, roleID); err != nil {
		return nil, err
	}
	details, err := s.repo.ListDetailsByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []GrantDetail{}
	}
	return details, nil
}

// ListByPermission returns every role holding the permission.
func (s *Service) ListByPermission(ctx context.Context, permissionID int64) ([]permissions.RoleGrantView, error) {
	if _, err := s.perms.FindOne(ctx, permissionID); err != nil {
		return nil, err
	}
	return s.RolesByPermission(ctx, permissionID)
}

// RolesByPermission backs the permission catalog's enrichment read.
func (s *Service) RolesByPermission(ctx context.Context, permissionID int64) ([]permissions.RoleGrantView, error) {
	views, err := s.repo.ListRoleViewsByPermission(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []permissions.RoleGrantView{}
	}
	return views, nil
}

// PermissionsByRole backs the role's enrichment read.
func (s *Service) PermissionsByRole(ctx context.Context, roleID int64) ([]roles.PermissionGrantView, error) {
	details, err := s.repo.ListDetailsByRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	views := make([]roles.PermissionGrantView, 0, len(details))
	for _, d := range details {
		views = append(views, roles.PermissionGrantView{
			PermissionID: d.PermissionID,
			Code:         d.Code,
			Description:  d.Description,
			GrantedBy:    d.GrantedBy,
			GrantedAt:    d.GrantedAt,
		})
	}
	return views, nil
}

// resolveTargets dedupes ids and verifies every one resolves to a real
// permission. A single missing id fails the whole call.
func (s *Service) resolveTargets(ctx context.Context, permissionIDs []int64) (map[int64]struct{}, error) {
	unique := make([]int64, 0, len(permissionIDs))
	target := make(map[int64]struct{}, len(permissionIDs))
	for _, pid := range permissionIDs {
		if _, ok := target[pid]; ok {
			continue
		}
		target[pid] = struct{}{}
		unique = append(unique, pid)
	}
	if len(unique) == 0 {
		return target, nil
	}

	found, err := s.perms.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		known := make(map[int64]struct{}, len(found))
		for _, p := range found {
			known[p.ID] = struct{}{}
		}
		var missing []int64
		for _, pid := range unique {
			if _, ok := known[pid]; !ok {
				missing = append(missing, pid)
			}
		}
		return nil, shared.NotFound("Permissions with IDs %s not found", formatIDs(missing))
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
