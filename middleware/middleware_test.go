// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/classpulse/apperr"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/testutil"
)

func TestDataResponseEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	middleware.DataResponse(w, http.StatusCreated, map[string]string{"id": "p1"}, "Created")

	testutil.AssertStatus(t, w, http.StatusCreated)
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON content type, got %q", got)
	}

	var data map[string]string
	message := testutil.DecodeData(t, w, &data)
	if message != "Created" {
		t.Errorf("Expected message 'Created', got %q", message)
	}
	if data["id"] != "p1" {
		t.Errorf("Expected data to round-trip, got %v", data)
	}
}

func TestFailWithMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperr.NotFound("Poll not found"), http.StatusNotFound, "Poll not found"},
		{"conflict", apperr.Conflict("This poll is already active"), http.StatusConflict, "This poll is already active"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{"validation", apperr.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{"authentication", apperr.Authentication("bad token"), http.StatusUnauthorized, "bad token"},
		{"unclassified", errors.New("disk on fire"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			middleware.FailWith(w, tt.err)

			testutil.AssertStatus(t, w, tt.wantStatus)
			if message := testutil.DecodeData(t, w, nil); message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, message)
			}
		})
	}
}

func TestWithUser(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	users := store.NewUserStore(conn)
	user, token := testutil.CreateTestUser(t, conn, cfg, models.RoleTeacher)
	authmw := middleware.NewAuth(users, cfg.TokenSecret)

	var seen models.User
	handler := authmw.WithUser(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("GET", "/polls", nil, nil))

		testutil.AssertStatus(t, w, http.StatusNotFound)
		if message := testutil.DecodeData(t, w, nil); message != "Authentication token missing" {
			t.Errorf("Unexpected message %q", message)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("GET", "/polls", nil, testutil.AuthHeader("garbage")))

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
		if message := testutil.DecodeData(t, w, nil); message != "Wrong authentication token" {
			t.Errorf("Unexpected message %q", message)
		}
	})

	t.Run("valid token for a deleted user", func(t *testing.T) {
		ghost, ghostToken := testutil.CreateTestUser(t, conn, cfg, models.RoleStudent)
		if _, err := conn.Exec(`DELETE FROM users WHERE id = $1`, ghost.ID); err != nil {
			t.Fatalf("Failed to delete user: %v", err)
		}

		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("GET", "/polls", nil, testutil.AuthHeader(ghostToken)))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("GET", "/polls", nil, testutil.AuthHeader(token)))

		testutil.AssertStatus(t, w, http.StatusOK)
		if seen.ID != user.ID {
			t.Errorf("Expected user %s in context, got %s", user.ID, seen.ID)
		}
	})
}

func TestRequireRole(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	users := store.NewUserStore(conn)
	_, teacherToken := testutil.CreateTestUser(t, conn, cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, conn, cfg, models.RoleStudent)
	authmw := middleware.NewAuth(users, cfg.TokenSecret)

	handler := authmw.WithUser(middleware.RequireRole(models.RoleTeacher, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed role", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("POST", "/polls", nil, testutil.AuthHeader(teacherToken)))
		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("wrong role", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, testutil.MakeRequest("POST", "/polls", nil, testutil.AuthHeader(studentToken)))

		testutil.AssertStatus(t, w, http.StatusForbidden)
		if message := testutil.DecodeData(t, w, nil); message != "You do not have permission to perform this action" {
			t.Errorf("Unexpected message %q", message)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := middleware.CORS("", next)

	w := httptest.NewRecorder()
	req := testutil.MakeRequest("OPTIONS", "/polls", nil, map[string]string{"Origin": "http://localhost:3000"})
	handler.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected the request origin to be echoed, got %q", got)
	}

	// Non-preflight requests pass through with the headers attached
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.MakeRequest("GET", "/polls", nil, nil))
	testutil.AssertStatus(t, w, http.StatusTeapot)
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Expected CORS headers on normal requests")
	}
}
