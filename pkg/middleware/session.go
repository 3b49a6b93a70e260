package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type contextKeyType string

const sessionKey contextKeyType = "session"

// RoleAdmin is the role value the edge gateway sets for administrative users.
const RoleAdmin = "admin"

// Session carries the identity the edge gateway authenticated. Services
// behind the gateway trust the X-User-ID and X-User-Role headers; token
// validation happens upstream.
type Session struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// RequireSession extracts the gateway-authenticated identity from the
// X-User-ID and X-User-Role headers and stores it in the request context.
// Requests without a valid user ID are rejected with 401.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				writeSessionError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				writeSessionError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity")
				return
			}

			sess := Session{
				UserID:  userID,
				IsAdmin: r.Header.Get("X-User-Role") == RoleAdmin,
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session does not carry the admin role.
// It must be mounted after RequireSession.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || !sess.IsAdmin {
				writeSessionError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext extracts the gateway session from the request context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok
}

// UserIDFromContext extracts the authenticated user ID from the request
// context, or the empty string when no session is present.
func UserIDFromContext(ctx context.Context) string {
	if sess, ok := SessionFromContext(ctx); ok {
		return sess.UserID.String()
	}
	return ""
}

func writeSessionError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
