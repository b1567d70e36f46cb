package permissions

import (
	"context"
	"errors"

	"github.com/crewdeck/crewdeck/internal/shared"
)

// Service owns the permission catalog business rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new permission. The code must be unique across the
// catalog; the storage constraint backs up the pre-check.
func (s *Service) Create(ctx context.Context, req CreatePermissionRequest) (*Permission, error) {
	existing, err := s.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.Conflict("Permission with code '%s' already exists", req.Code)
	}
	return s.repo.Create(ctx, req.Code, req.Description)
}

// Get fetches a permission by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Permission, error) {
	return s.repo.Get(ctx, id)
}

// FindOne is the lookup used by the grant graph to validate references.
func (s *Service) FindOne(ctx context.Context, id int64) (*Permission, error) {
	return s.repo.Get(ctx, id)
}

// FindByCode returns the permission with the given code, or nil when absent.
func (s *Service) FindByCode(ctx context.Context, code string) (*Permission, error) {
	perm, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return perm, nil
}

// FindByIDs returns the subset of ids that resolve to permissions. Callers
// needing an all-or-nothing guarantee must compare counts.
func (s *Service) FindByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	return s.repo.GetManyByIDs(ctx, ids)
}

// List returns a page of the catalog ordered by code ascending, optionally
// filtered by code substring.
func (s *Service) List(ctx context.Context, req ListPermissionsRequest) (*ListPermissionsResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 1000
	}
	perms, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []Permission{}
	}
	return &ListPermissionsResponse{
		Permissions: perms,
		Total:       total,
		Page:        req.Page,
		Limit:       req.Limit,
	}, nil
}

// Update applies a patch. A code change is checked for collisions against
// every other permission before being applied.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePermissionRequest) (*Permission, error) {
	perm, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	code := perm.Code
	if req.Code != nil && *req.Code != perm.Code {
		existing, err := s.FindByCode(ctx, *req.Code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, shared.Conflict("Permission with code '%s' already exists", *req.Code)
		}
		code = *req.Code
	}

	description := perm.Description
	if req.Description != nil {
		description = req.Description
	}

	return s.repo.Update(ctx, id, code, description)
}

// Delete removes a permission. Grants referencing it are cascaded by the
// relational schema.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
