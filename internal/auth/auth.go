package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/laneboard/laneboard/internal/httpx"
)

type ctxKey string

const identityCtxKey = ctxKey("externalID")

// WithIdentity stores the caller's external identity (the provider's
// subject claim) in the context.
func WithIdentity(ctx context.Context, externalID string) context.Context {
	return context.WithValue(ctx, identityCtxKey, externalID)
}

// IdentityFromContext extracts the caller's external identity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(identityCtxKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// BearerToken pulls the token out of the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Middleware verifies a bearer token when one is present and attaches
// the resulting identity to the request context. A malformed or
// unverifiable token is rejected immediately; requests without a token
// pass through and are stopped later by RequireAuth on protected routes.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				externalID, err := v.Verify(r.Context(), token)
				if err != nil {
					w.Header().Set("WWW-Authenticate", "Bearer")
					httpx.Error(w, err)
					return
				}
				r = r.WithContext(WithIdentity(r.Context(), externalID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns 401 when no verified identity is on the context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpx.JSONError(w, http.StatusUnauthorized, "missing or invalid bearer token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
