package assignments

import (
	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// MountRoutes registers the user-role graph routes.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleAssign))
		r.Post("/", h.assign)
		r.Post("/bulk", h.assignMany)
		r.Put("/user/{userID}/sync", h.sync)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleView, shared.PermUsersView))
		r.Get("/user/{userID}", h.listByUser)
		r.Get("/user/{userID}/permissions", h.userPermissions)
		r.Get("/user/{userID}/check-permission/{code}", h.checkPermission)
		r.Get("/role/{roleID}", h.listByRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.PermRoleRevoke))
		r.Delete("/user/{userID}/role/{roleID}", h.remove)
		r.Delete("/user/{userID}", h.removeAll)
	})
}
