// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
)

// Scope names. Every client is in the global scope implicitly and in exactly
// one role cohort; poll scopes are joined and left at will.
const (
	ScopeTeachers = "teachers"
	ScopeStudents = "students"
)

// PollScope returns the scope name for one poll's audience.
func PollScope(pollID string) string {
	return "poll_" + pollID
}

func roleScope(role string) string {
	if role == models.RoleTeacher {
		return ScopeTeachers
	}
	return ScopeStudents
}

// Hub is the session registry and broadcast router: it admits authenticated
// connections, tracks their scope memberships, and fans events out to the
// right audience. It implements lifecycle.Notifier.
type Hub struct {
	users       *store.UserStore
	tokenSecret string
	svc         *lifecycle.Service

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub(users *store.UserStore, tokenSecret, origin string) *Hub {
	return &Hub{
		users:       users,
		tokenSecret: tokenSecret,
		clients:     make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" || origin == "*" {
					return true
				}
				return r.Header.Get("Origin") == origin
			},
		},
	}
}

// Bind attaches the lifecycle service after construction. The hub is created
// first because the service takes the hub as its Notifier. Bind must be
// called before the hub accepts its first connection; svc is read without
// synchronization once connections are being served.
func (h *Hub) Bind(svc *lifecycle.Service) {
	h.svc = svc
}

// ServeHTTP is the websocket handshake endpoint. A token is required; the
// connection is rejected before upgrade if it is missing, invalid, or the
// resolved user no longer exists.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		slog.Info("ws connection rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn, *user)
	client.joinScope(roleScope(user.Role))

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	slog.Info("user connected", "user_id", user.ID, "role", user.Role)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) authenticate(r *http.Request) (*models.User, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		return nil, errors.New("authentication token missing")
	}

	userID, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		return nil, err
	}

	user, err := h.users.GetByID(userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("user not found")
	}
	return user, err
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	h.mu.Unlock()

	if ok {
		client.close()
		slog.Info("user disconnected", "user_id", client.user.ID)
	}
}

// ClientCount returns the number of admitted connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Fan-out primitives. Delivery is best-effort: no acknowledgement, no queue
// for disconnected clients, and a client that cannot keep up is dropped.

func (h *Hub) EmitToAll(event string, payload interface{}) {
	h.emit(event, payload, func(*Client) bool { return true })
}

func (h *Hub) EmitToRole(role, event string, payload interface{}) {
	scope := roleScope(role)
	h.emit(event, payload, func(c *Client) bool { return c.inScope(scope) })
}

func (h *Hub) EmitToPoll(pollID, event string, payload interface{}) {
	scope := PollScope(pollID)
	h.emit(event, payload, func(c *Client) bool { return c.inScope(scope) })
}

func (h *Hub) EmitToUser(userID, event string, payload interface{}) {
	h.emit(event, payload, func(c *Client) bool { return c.user.ID == userID })
}

func (h *Hub) emit(event string, payload interface{}, match func(*Client) bool) {
	msg := Message{Event: event, Data: payload}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(msg)
	}
}
