package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/craftrealm/realm-api/internal/apierr"
	"github.com/craftrealm/realm-api/internal/models"
)

type userKey struct{}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false when the header is absent, uses another scheme or
// carries an empty token.
func BearerToken(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth is middleware that validates the bearer token and injects
// the caller into the request context.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				apierr.WriteError(w, r, models.ErrUnauthenticated)
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the caller set by RequireAuth, or nil.
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}
