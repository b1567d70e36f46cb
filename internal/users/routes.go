package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// MountRoutes registers the user directory routes. Profile and password
// change act on the authenticated principal and need no permission beyond
// authentication itself.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Get("/profile", h.profile)
	r.Post("/change-password", h.changePassword)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/roles", h.getRoles)
		r.Get("/{id}/permissions", h.getPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersEdit))
		r.Patch("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersActivate, shared.PermUsersDeactivate))
		r.Patch("/{id}/status", h.changeStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersResetPassword))
		r.Post("/{id}/reset-password", h.resetPassword)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermUsersDelete))
		r.Delete("/{id}", h.delete)
	})
}
