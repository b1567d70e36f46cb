package roles

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// MountRoutes registers the role management routes.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleView, shared.PermRolesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/permissions", h.getPermissions)
		r.Get("/{id}/users", h.getUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleEdit))
		r.Patch("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleDelete))
		r.Delete("/{id}", h.delete)
	})
}
