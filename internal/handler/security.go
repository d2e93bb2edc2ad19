package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/wearly/storefront/internal/domain/auth"
)

// userIDKey is the context key for the authenticated user id.
type userIDKey struct{}

// UserIDFromContext extracts the authenticated user id from the context.
// It returns an empty string when the request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequireAuth returns a middleware that resolves the bearer token to a user
// id and stores it in the request context. Requests without a valid session
// get a 401 and never reach the handler.
func RequireAuth(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authn.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					respondError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				respondDomainError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header; the scheme match is case-insensitive.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
