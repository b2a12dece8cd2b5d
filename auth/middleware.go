package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// Middleware handles JWT validation for incoming HTTP calls. Public
// routes (register, login, healthz) are simply never wrapped.
func Middleware(tokens *TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Retrieve and validate the Authorization header
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "authorization token is missing")
			return
		}

		// Expecting the standard "Bearer <token>" format
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		// 2. Validate the JWT and extract claims
		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		// 3. Inject user identity into context for downstream service layers
		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, RolesKey, claims.Roles)

		// Continue the execution chain with the enriched context
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID extracts the authenticated caller from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

// unauthorized keeps the error shape aligned with the rest of the API.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
