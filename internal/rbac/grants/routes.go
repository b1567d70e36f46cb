package grants

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// MountRoutes registers the role-permission graph routes.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleAssign))
		r.Post("/", h.grant)
		r.Post("/bulk", h.grantMany)
		r.Put("/role/{roleID}/sync", h.sync)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleView, shared.PermPermissionView))
		r.Get("/role/{roleID}", h.listByRole)
		r.Get("/permission/{permissionID}", h.listByPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleRevoke))
		r.Delete("/role/{roleID}/permission/{permissionID}", h.revoke)
		r.Delete("/role/{roleID}", h.revokeAll)
	})
}
