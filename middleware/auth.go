// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
)

type contextKey int

const userKey contextKey = iota

// Auth authenticates requests: Bearer token -> verified user in the request
// context.
type Auth struct {
	users       *store.UserStore
	tokenSecret string
}

func NewAuth(users *store.UserStore, tokenSecret string) *Auth {
	return &Auth{users: users, tokenSecret: tokenSecret}
}

// WithUser rejects the request unless a valid token resolves to an existing
// user. A missing token is 404, an invalid one 401, matching the error
// taxonomy for authentication failures.
func (a *Auth) WithUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ErrorResponse(w, http.StatusNotFound, "Authentication token missing")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := auth.VerifyToken(token, a.tokenSecret)
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Wrong authentication token")
			return
		}

		user, err := a.users.GetByID(userID)
		if errors.Is(err, sql.ErrNoRows) {
			ErrorResponse(w, http.StatusUnauthorized, "Wrong authentication token")
			return
		}
		if err != nil {
			FailWith(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, *user)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole gates a handler to one role. Must run after WithUser.
func RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		if user.Role != role {
			ErrorResponse(w, http.StatusForbidden, "You do not have permission to perform this action")
			return
		}
		next(w, r)
	}
}

// UserFrom returns the authenticated user stored by WithUser.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
