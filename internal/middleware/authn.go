package middleware

import (
	"context"
	"net/http"
	"strings"

	"vetclinic-backend/internal/auth"
	"vetclinic-backend/internal/transport"
)

type claimsKey struct{}

// Authenticate verifies the Authorization bearer token and stores the
// session claims in the request context. Refresh tokens are rejected here;
// they are only accepted by the refresh endpoint.
func Authenticate(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "autenticacion no configurada", nil)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				transport.WriteError(w, http.StatusUnauthorized, "no autenticado", nil)
				return
			}

			claims, err := manager.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil || claims.Kind != auth.KindAccess {
				transport.WriteError(w, http.StatusUnauthorized, "token invalido", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles gates a route to the given roles. The check is repeated
// server-side regardless of what the front end hides; client-side gating
// is presentation only.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				transport.WriteError(w, http.StatusUnauthorized, "no autenticado", nil)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				transport.WriteError(w, http.StatusForbidden, "acceso restringido", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey{}); v != nil {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
