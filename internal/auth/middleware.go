package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var userIDKey contextKey

// UserID returns the authenticated user ID stored by Middleware, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context carrying the given user ID. Intended for
// tests and internal jobs that act on behalf of a user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware validates the Bearer token on every request and stores the
// authenticated user ID in the request context.
func Middleware(tokens *TokenManager, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Authorization header must be a Bearer token", http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Parse(parts[1])
			if err != nil {
				logger.WithError(err).Warn("rejected request with invalid token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
