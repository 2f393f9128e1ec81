package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"mini-crm/auth"
	"mini-crm/db"
	"mini-crm/models"
)

// UserContextKey holds the resolved models.User for the request.
const UserContextKey = "currentUser"

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			log.Printf("Auth Middleware - Token parsing error: %v\n", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// The token subject must still exist; a deleted account keeps a
		// valid signature but loses access.
		var user models.User
		err = db.DB.QueryRow(
			"SELECT id, email, username, password_hash, is_active, created_at FROM users WHERE email = ?",
			claims.Email,
		).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.IsActive, &user.CreatedAt)
		if err != nil {
			log.Printf("Auth Middleware - Unknown token subject: %s\n", claims.Email)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
		next.ServeHTTP(w, r)
	})
}
