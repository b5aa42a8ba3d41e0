package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mroshb/engage_app/internal/security"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

// Identity is the authenticated caller taken from the bearer token.
type Identity struct {
	UserID string
	Email  string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok && identity.UserID != ""
}

// RequireAuth validates "Authorization: Bearer <jwt>" and rejects the
// request with 401 when the header is missing or the token is invalid.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, errors.ErrUnauthenticated)
				return
			}

			claims, err := security.ValidateJWT(token, secret)
			if err != nil {
				logger.Debug("Rejected bearer token", "error", err)
				WriteError(w, errors.ErrUnauthenticated)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
