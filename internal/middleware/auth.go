// file: internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session token for browser clients
const SessionCookieName = "badgehub_session"

// ExtractToken pulls the session token from the Authorization header or,
// failing that, from the session cookie.
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(auth[len("Bearer "):])
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth rejects requests that do not carry a valid session
func RequireAuth(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			user, err := auth.ValidateSession(r.Context(), token)
			if err != nil {
				response.QuickError(w, r, err)
				return
			}

			ctx := contextutils.WithUserID(r.Context(), user.ID)
			ctx = contextutils.WithUsername(ctx, user.Username)

			logger := GetRequestLogger(ctx).With(
				zap.Int64("user_id", user.ID),
				zap.String("username", user.Username),
			)
			ctx = WithRequestLogger(ctx, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid session is present and
// passes the request through anonymously otherwise.
func OptionalAuth(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.ValidateSession(r.Context(), token)
			if err != nil {
				// Stale cookies are common; treat them as anonymous.
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextutils.WithUserID(r.Context(), user.ID)
			ctx = contextutils.WithUsername(ctx, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
