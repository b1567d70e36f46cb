package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdeck/crewdeck/internal/auth"
	"github.com/crewdeck/crewdeck/internal/observability"
	"github.com/crewdeck/crewdeck/internal/rbac"
	"github.com/crewdeck/crewdeck/internal/rbac/assignments"
	"github.com/crewdeck/crewdeck/internal/rbac/grants"
	"github.com/crewdeck/crewdeck/internal/rbac/permissions"
	"github.com/crewdeck/crewdeck/internal/rbac/roles"
	"github.com/crewdeck/crewdeck/internal/users"
	"github.com/crewdeck/crewdeck/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Authenticator      *auth.Authenticator
	AuthHandler        *auth.Handler
	PermissionsHandler *permissions.Handler
	RolesHandler       *roles.Handler
	GrantsHandler      *grants.Handler
	AssignmentsHandler *assignments.Handler
	UsersHandler       *users.Handler
	JobHandler         *jobs.Handler
	Pool               *pgxpool.Pool
	RBACMiddleware     rbac.Middleware
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Crewdeck defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		Authenticator: params.Authenticator,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(rt chi.Router) {
			params.AuthHandler.MountRoutes(rt)
		})
		api.Route("/permissions", func(rt chi.Router) {
			params.PermissionsHandler.MountRoutes(rt, params.RBACMiddleware)
		})
		api.Route("/roles", func(rt chi.Router) {
			params.RolesHandler.MountRoutes(rt, params.RBACMiddleware)
		})
		api.Route("/role-permissions", func(rt chi.Router) {
			params.GrantsHandler.MountRoutes(rt, params.RBACMiddleware)
		})
		api.Route("/user-roles", func(rt chi.Router) {
			params.AssignmentsHandler.MountRoutes(rt, params.RBACMiddleware)
		})
		api.Route("/users", func(rt chi.Router) {
			params.UsersHandler.MountRoutes(rt, params.RBACMiddleware)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
