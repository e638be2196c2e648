// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
)

type AuthHandler struct {
	users       *store.UserStore
	tokenSecret string
}

func NewAuthHandler(users *store.UserStore, tokenSecret string) *AuthHandler {
	return &AuthHandler{users: users, tokenSecret: tokenSecret}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var violations []string
	if req.Name == "" {
		violations = append(violations, "name is required")
	}
	if req.Email == "" {
		violations = append(violations, "email is required")
	}
	if len(req.Password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}
	if req.Role != models.RoleTeacher && req.Role != models.RoleStudent {
		violations = append(violations, "role must be TEACHER or STUDENT")
	}
	if len(violations) > 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, strings.Join(violations, "; "))
		return
	}

	if _, err := h.users.GetByEmail(req.Email); err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "This email "+req.Email+" already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		middleware.FailWith(w, err)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	user, err := h.users.Create(req.Name, req.Email, hashed, req.Role)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	slog.Info("user signed up", "user_id", user.ID, "role", user.Role)

	middleware.DataResponse(w, http.StatusCreated, models.AuthResponse{
		AccessToken: auth.GenerateToken(user.ID, h.tokenSecret),
		User:        *user,
	}, "Signed up successfully")
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusConflict, "This email "+req.Email+" was not found")
		return
	}
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		middleware.ErrorResponse(w, http.StatusConflict, "Password is not matching")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)

	middleware.DataResponse(w, http.StatusOK, models.AuthResponse{
		AccessToken: auth.GenerateToken(user.ID, h.tokenSecret),
		User:        *user,
	}, "Logged in successfully")
}
