package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/google/uuid"
)

type ctxKey int

const (
	usernameKey ctxKey = iota
	tokenKey
	requestIDKey
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// SessionValidator resolves a bearer token to a username.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, bool, error)
}

// RequestID tags each request with an id, reusing the caller's when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequireSession rejects requests without a valid session token. Browser
// WebSocket clients may pass the token as ?token=.
func RequireSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}

			username, ok, err := sessions.ValidateSession(r.Context(), token)
			if err != nil {
				logging.WithError(err).Error("session lookup failed", "request_id", RequestIDFromContext(r.Context()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"success":false,"message":"Session store unavailable"}`))
				return
			}
			if !ok {
				writeUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireSession.
func RequireAdmin(isAdmin func(username string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := UsernameFromContext(r.Context())
			if username == "" || !isAdmin(username) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"success":false,"message":"Admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func UsernameFromContext(ctx context.Context) string {
	s, _ := ctx.Value(usernameKey).(string)
	return s
}

func TokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

func RequestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

// WithUsername returns ctx carrying username as the authenticated user.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameKey keys per-user rate limits on the authenticated username.
func UsernameKey(r *http.Request) string {
	return UsernameFromContext(r.Context())
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
