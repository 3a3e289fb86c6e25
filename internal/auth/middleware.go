package auth

import (
	"net/http"
	"strings"

	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
)

// Authenticate returns middleware that resolves the bearer token to an
// active user. The user row is loaded per request, so a token for a user
// disabled after issuance stops working immediately.
func Authenticate(issuer *Issuer, source UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, errors.Unauthorized("missing authorization token"))
				return
			}

			claims, err := issuer.Verify(token, TokenAccess)
			if err != nil {
				respond.Error(w, err)
				return
			}

			user, err := source.FindSessionUser(r.Context(), claims.UserID)
			if err != nil {
				respond.Error(w, errors.Unauthorized("invalid token"))
				return
			}
			if !user.IsActive {
				respond.Error(w, errors.Unauthorized("account is disabled"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRoles returns middleware allowing only the given roles. An empty
// list allows any authenticated user. Admins always pass.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := FromContext(r.Context())
			if !ok {
				respond.Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if !AllowRoles(user, roles...) {
				respond.Error(w, errors.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission returns middleware requiring a module/action grant.
func RequirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := FromContext(r.Context())
			if !ok {
				respond.Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if !Authorize(user, module, action) {
				respond.Error(w, errors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
