// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/db"
	"github.com/danielhkuo/classpulse/models"
)

// DefaultPassword is the plaintext behind every test user's stored hash.
const DefaultPassword = "password123"

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. Each call returns an isolated database; no external services are
// needed to run the suite.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         5000,
		DatabaseURL:  "file::memory:",
		DatabaseType: "sqlite",
		TokenSecret:  "test-token-secret",
	}
}

// CreateTestUser inserts a user with the given role and returns it along
// with a valid access token.
func CreateTestUser(t *testing.T, conn *sql.DB, cfg cliparse.Config, role string) (models.User, string) {
	t.Helper()

	hashed, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      "Test " + role,
		Email:     uuid.NewString() + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	_, err = conn.Exec(`
		INSERT INTO users (id, name, email, password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, hashed, user.Role, user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user, auth.GenerateToken(user.ID, cfg.TokenSecret)
}

// CreateTestPoll inserts a poll in the given status for the creator and
// returns its ID. A STARTED poll gets a window of [now, now+duration);
// a COMPLETED poll gets a window entirely in the past.
func CreateTestPoll(t *testing.T, conn *sql.DB, creatorID, status string, options []string, duration int) string {
	t.Helper()

	pollID := uuid.NewString()
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		t.Fatalf("Failed to encode options: %v", err)
	}

	now := time.Now().UTC()
	var startTime, endTime *time.Time
	isActive := false

	switch status {
	case models.StatusStarted:
		end := now.Add(time.Duration(duration) * time.Second)
		startTime, endTime = &now, &end
		isActive = true
	case models.StatusCompleted:
		start := now.Add(-2 * time.Duration(duration) * time.Second)
		end := start.Add(time.Duration(duration) * time.Second)
		startTime, endTime = &start, &end
	}

	_, err = conn.Exec(`
		INSERT INTO poll (id, title, question, options, created_by, duration, status, is_active, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, pollID, "Test Poll", "Test question?", string(optionsJSON), creatorID,
		duration, status, isActive, startTime, endTime, now, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthHeader builds the Authorization header map for a token.
func AuthHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeData decodes the {data, message} envelope and unmarshals the data
// field into v.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) string {
	t.Helper()

	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
	if v != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, v); err != nil {
			t.Fatalf("Failed to decode data field: %v", err)
		}
	}
	return envelope.Message
}
