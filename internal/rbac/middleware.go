// Package rbac implements the request authorization guard. Required
// permissions are declared explicitly at route registration; the guard
// resolves the principal's effective permission set on every request and
// applies OR semantics, so a route is reachable by any role holding at
// least one of the declared codes.
package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crewdeck/crewdeck/internal/platform/httpx"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// PermissionSource computes the effective permission set for a user. It is
// backed by the user-role graph and re-reads storage on every call; the
// guard never caches decisions.
type PermissionSource interface {
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// Middleware wires the authorization guard for HTTP handlers.
type Middleware struct {
	Source PermissionSource
	Logger *slog.Logger
}

// RequireAny allows the request when the principal holds at least one of the
// given permissions. Declaring zero permissions allows every request through,
// authenticated or not, which is how public-but-routed operations opt out.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := dedupe(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				// Authentication happened upstream; a missing principal on a
				// guarded route is an authorization failure, not a 401.
				httpx.RespondError(w, r, shared.Forbidden("User not authenticated"))
				return
			}
			granted, err := m.Source.UserPermissions(r.Context(), principal.UserID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac resolve permissions", slog.Int64("user_id", principal.UserID), slog.Any("error", err))
				}
				httpx.RespondError(w, r, err)
				return
			}
			if hasAny(granted, required) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.RespondError(w, r, shared.Forbidden(
				"Access denied. Required permissions: %s", strings.Join(required, " or ")))
		})
	}
}

// dedupe drops blank and repeated codes while keeping declaration order, so
// denial messages read the way the route declared them.
func dedupe(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func hasAny(granted, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}
