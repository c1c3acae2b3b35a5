package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chargelog/chargelog/internal/session"
)

// TokenVerifier validates an API token and returns the session it encodes.
// *session.LocalAuth satisfies it.
type TokenVerifier interface {
	VerifyToken(token string) (session.Session, error)
}

type sessionKey struct{}

// NewAuthHandler returns a middleware that requires a "Bearer <token>"
// Authorization header, verifies it, and stores the resulting session in the
// request context. Requests without a valid token get 401 and never reach
// the next handler.
func NewAuthHandler(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			s, err := verifier.VerifyToken(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, &s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session stored by NewAuthHandler, or nil when the
// request did not pass through it.
func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// WithSession returns a context carrying the given session. Tests use it to
// reach authenticated handlers without minting real tokens.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "not_authenticated", "message": message},
	})
}
