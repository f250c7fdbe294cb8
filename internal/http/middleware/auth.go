package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mediwrap/platform/internal/session"
)

// TokenVerifier resolves a bearer token into a session.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*session.Session, error)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// Authenticate resolves the bearer token, if any, and attaches the session
// to the request context. Requests without a token pass through anonymous;
// pair with RequireAuth or RequireRole to actually gate a route.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// A stale or tampered token is treated as anonymous, not
				// as a hard failure, so public routes keep working.
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireAuth rejects requests that did not resolve to a session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects authenticated requests whose session role is not in
// the allowed set. Unauthenticated requests get 401.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	allowed := map[session.Role]struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[sess.Role]; !ok {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
