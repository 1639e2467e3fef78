package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/authtoken"
)

// identityKey is the context key for storing the authenticated identity.
type identityKey struct{}

// WithIdentity returns a new context with the identity stored in it.
func WithIdentity(ctx context.Context, id authtoken.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
// The second return is false when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (authtoken.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(authtoken.Identity)
	return id, ok
}

// Auth returns middleware that verifies the Bearer token on each request and
// stores the resulting identity in the request context. Requests without a
// valid token receive a 401 Problem Details response.
func Auth(tokens *authtoken.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				dto.WriteErrorResponse(w, r, domain.ErrUnauthorized)
				return
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				dto.WriteErrorResponse(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
