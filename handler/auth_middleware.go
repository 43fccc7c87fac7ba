package handler

import (
	"context"
	"database/sql"
	"errors"
	"go-auth-api/common"
	"go-auth-api/repository"
	"go-auth-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	// UserIDKey holds the authenticated user's id in the request context.
	UserIDKey contextKey = "userID"
	// UserKey holds the sanitized user record in the request context.
	UserKey contextKey = "user"
)

// AuthMiddleware is the per-request authentication gate. It extracts the
// bearer token, verifies signature and expiration, resolves the claims to an
// active user row and attaches the sanitized identity to the request context.
// Any failure short-circuits with 401.
func AuthMiddleware(authService *service.AuthService, userRepo repository.IUserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				appErr := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				appErr.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				appErr.Send(w)
				return
			}

			claims, err := authService.VerifyAccessToken(headerParts[1])
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil)
				appErr.Send(w)
				return
			}

			// The token alone is not enough: the user must still exist and
			// not be soft-deleted.
			user, err := userRepo.GetActiveUserByID(claims.UserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil)
					appErr.Send(w)
					return
				}
				appErr := common.NewAppError(http.StatusInternalServerError, "Could not resolve user", err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user.Sanitize())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
