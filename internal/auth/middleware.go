package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

// UserID extracts the authenticated user ID set by Middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the user ID, for tests and
// internal callers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// Middleware validates the Bearer token, checks the user still exists and
// puts the user ID into the request context. onError renders the 401 in
// the transport's response format.
func (s *Service) Middleware(onError func(w http.ResponseWriter, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				onError(w, "authorization header is required")
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				onError(w, "invalid token format")
				return
			}

			userID, err := s.jwt.Validate(tokenString)
			if err != nil {
				onError(w, "invalid or expired token")
				return
			}

			if _, err := s.store.UserByID(r.Context(), userID); err != nil {
				onError(w, "user not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
