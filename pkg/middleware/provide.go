package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/composables"
	"github.com/iota-uz/itam/pkg/constants"
)

// Provide stores value under key in every request context.
func Provide(k constants.ContextKey, v any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), k, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleHeader is read by WithRole. The dashboard forwards the role of the signed-in user.
const RoleHeader = "X-Role"

// WithRole puts the caller's role into the request context, falling back to defaultRole.
func WithRole(defaultRole string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := r.Header.Get(RoleHeader)
			if role == "" {
				role = defaultRole
			}
			ctx := composables.WithRole(r.Context(), authz.NormalizeRole(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
