// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/classpulse/handlers"
	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/ws"
)

// NewRouter wires every route. Creator-only operations are gated to the
// TEACHER role; any authenticated user may read polls and submit answers.
func NewRouter(svc *lifecycle.Service, users *store.UserStore, hub *ws.Hub, tokenSecret string) *http.ServeMux {
	mux := http.NewServeMux()

	pollHandler := handlers.NewPollHandler(svc)
	authHandler := handlers.NewAuthHandler(users, tokenSecret)
	authmw := middleware.NewAuth(users, tokenSecret)

	logged := middleware.WithLogging
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return logged(authmw.WithUser(h))
	}
	teacher := func(h http.HandlerFunc) http.HandlerFunc {
		return authed(middleware.RequireRole(models.RoleTeacher, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /auth/signup", logged(authHandler.Signup))
	mux.HandleFunc("POST /auth/login", logged(authHandler.Login))

	// Poll management (teacher operations)
	mux.HandleFunc("POST /polls", teacher(pollHandler.CreatePoll))
	mux.HandleFunc("PUT /polls/{id}", teacher(pollHandler.UpdatePoll))
	mux.HandleFunc("DELETE /polls/{id}", teacher(pollHandler.DeletePoll))
	mux.HandleFunc("POST /polls/{id}/start", teacher(pollHandler.StartPoll))
	mux.HandleFunc("POST /polls/{id}/end", teacher(pollHandler.EndPoll))
	mux.HandleFunc("GET /polls/active", teacher(pollHandler.GetActivePoll))

	// Poll reads and answering (any authenticated role)
	mux.HandleFunc("GET /polls", authed(pollHandler.GetAllPolls))
	mux.HandleFunc("GET /polls/{id}", authed(pollHandler.GetPoll))
	mux.HandleFunc("GET /polls/{id}/results", authed(pollHandler.GetPollResults))
	mux.HandleFunc("POST /polls/{id}/answers", authed(pollHandler.SubmitAnswer))

	// Live connection (token checked in the handshake)
	mux.Handle("GET /ws", hub)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("classpulse API v1"))
	})

	return mux
}
