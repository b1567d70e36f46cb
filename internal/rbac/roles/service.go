package roles

import (
	"context"
	"errors"

	"github.com/crewdeck/crewdeck/internal/shared"
)

// Service owns the role business rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new role. The name must be unique; the storage constraint
// backs up the pre-check.
func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	existing, err := s.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.Conflict("Role with name '%s' already exists", req.Name)
	}
	isDefault := false
	if req.IsDefault != nil {
		isDefault = *req.IsDefault
	}
	return s.repo.Create(ctx, req.Name, req.Description, isDefault)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// FindOne is the lookup used by the grant and assignment graphs to validate
// role references.
func (s *Service) FindOne(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// FindByName returns the role with the given name, or nil when absent.
func (s *Service) FindByName(ctx context.Context, name string) (*Role, error) {
	role, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}

// FindByIDs returns the subset of ids that resolve to roles. Callers needing
// an all-or-nothing guarantee must compare counts.
func (s *Service) FindByIDs(ctx context.Context, ids []int64) ([]Role, error) {
	return s.repo.GetManyByIDs(ctx, ids)
}

// FindDefaultRoles returns every role flagged as default. Registration
// assigns all of them to the new user.
func (s *Service) FindDefaultRoles(ctx context.Context) ([]Role, error) {
	list, err := s.repo.GetDefaults(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Role{}
	}
	return list, nil
}

// List returns a page of roles ordered by creation time descending, with
// optional name substring and default-flag filters.
func (s *Service) List(ctx context.Context, req ListRolesRequest) (*ListRolesResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 1000
	}
	list, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Role{}
	}
	return &ListRolesResponse{
		Roles: list,
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}

// Update applies a patch. A name change is checked for collisions against
// every other role before being applied.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRoleRequest) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := role.Name
	if req.Name != nil && *req.Name != role.Name {
		existing, err := s.FindByName(ctx, *req.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, shared.Conflict("Role with name '%s' already exists", *req.Name)
		}
		name = *req.Name
	}

	description := role.Description
	if req.Description != nil {
		description = req.Description
	}
	isDefault := role.IsDefault
	if req.IsDefault != nil {
		isDefault = *req.IsDefault
	}

	return s.repo.Update(ctx, id, name, description, isDefault)
}

// Delete removes a role. Grants and assignments referencing it are cascaded
// by the relational schema.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
