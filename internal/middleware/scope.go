package middleware

import (
	"net/http"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/model"
)

// RequireScope rejects requests whose caller holds none of the required
// scopes. Admin implies every scope. Must run after Auth.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			for _, scope := range required {
				if authCtx.HasScope(scope) {
					next.ServeHTTP(w, r)
					return
				}
			}

			msg := "Insufficient permissions"
			if len(required) > 0 {
				msg += ". Required scope: " + required[0]
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", msg)
		})
	}
}

// RequireAdmin is RequireScope(model.ScopeAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeAdmin)
}
