// Package middleware provides the HTTP middleware chain: request logging,
// gzip handling, and owner authentication.
package middleware

import (
	"context"
	"net/http"

	"github.com/linkcut/linkcut/internal/app/service"
)

// ContextKey is a custom type used for keys in the context.
// It helps prevent collisions in context keys.
type ContextKey string

// UserIDKey is the key used to store and retrieve the owner id from the context.
const UserIDKey ContextKey = "userID"

// OwnerFromContext extracts the authenticated owner id set by WithAuth.
func OwnerFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// WithAuth requires a valid session token cookie and injects the owner id it
// carries into the request context. Requests without a valid token get 401;
// downstream handlers only ever see a trusted owner id.
func WithAuth(auth service.AuthIface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("token")
			if err != nil {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseClaims(cookie)
			if err != nil {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
