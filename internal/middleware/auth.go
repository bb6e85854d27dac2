package middleware

import (
	"context"
	"net/http"

	"auth-gateway/internal/session"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID attaches the authenticated user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// AuthMiddleware enforces a valid session on individual routes that sit
// outside the gate's protected prefixes (/oauth/:provider,
// /settings/restart).
type AuthMiddleware struct {
	Sessions *session.Manager
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session credential
		credential, err := session.FromRequest(r)
		if err != nil {
			unauthorized(w)
			return
		}

		// 2. Verify signature and expiry
		userID, _, err := a.Sessions.Verify(credential)
		if err != nil {
			unauthorized(w)
			return
		}

		// 3. Attach user_id to context
		ctx := WithUserID(r.Context(), userID)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"authentication required"}`))
}
