package auth

import (
	"net/http"
	"strings"

	"github.com/crewdeck/crewdeck/internal/platform/httpx"
	"github.com/crewdeck/crewdeck/internal/shared"
)

// Authenticator turns a bearer token into a request principal. Requests
// without an Authorization header pass through anonymously and fail later at
// the permission guard; requests with a bad token are rejected here.
type Authenticator struct {
	tokens *TokenManager
}

// NewAuthenticator builds an Authenticator instance.
func NewAuthenticator(tokens *TokenManager) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Middleware is the authentication layer for /api routes.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httpx.RespondError(w, r, shared.Unauthorized("Invalid authorization header"))
			return
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			httpx.RespondError(w, r, err)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), &shared.Principal{
			UserID:   claims.UserID,
			Username: claims.Username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
