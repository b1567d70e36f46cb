package permissions

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// MountRoutes registers the permission catalog routes.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermPermissionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermPermissionView, shared.PermPermissionsView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/roles", h.getRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermPermissionEdit))
		r.Patch("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermPermissionDelete))
		r.Delete("/{id}", h.delete)
	})
}
