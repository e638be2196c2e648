// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws_test

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/scheduler"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/testutil"
	"github.com/danielhkuo/classpulse/ws"
)

type wsFixture struct {
	srv  *httptest.Server
	hub  *ws.Hub
	svc  *lifecycle.Service
	conn *sql.DB
	cfg  cliparse.Config
}

func setupWS(t *testing.T) *wsFixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	polls := store.NewPollStore(conn)
	users := store.NewUserStore(conn)
	sched := scheduler.New()
	t.Cleanup(sched.Stop)

	hub := ws.NewHub(users, cfg.TokenSecret, "")
	svc := lifecycle.NewService(polls, sched, hub, nil)
	hub.Bind(svc)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	return &wsFixture{srv: srv, hub: hub, svc: svc, conn: conn, cfg: cfg}
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	before := f.hub.ClientCount()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The hub registers the client just after the handshake completes
	deadline := time.Now().Add(2 * time.Second)
	for f.hub.ClientCount() <= before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(map[string]interface{}{"event": event, "data": data}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

// readEvent discards frames until it sees the named event. Broadcasts from
// different scopes interleave, so order across events is not guaranteed.
func readEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("Did not receive %q: %v", event, err)
		}
		if f.Event == event {
			return f
		}
	}
}

func assertNoEvent(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return // timed out without seeing it
		}
		if f.Event == event {
			t.Fatalf("Received unexpected %q: %s", event, f.Data)
		}
	}
}

func TestHandshakeRequiresValidToken(t *testing.T) {
	f := setupWS(t)

	tests := []struct {
		name string
		url  string
	}{
		{"missing token", "ws" + strings.TrimPrefix(f.srv.URL, "http")},
		{"invalid token", "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/?token=garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			if err == nil {
				conn.Close()
				t.Fatal("Expected the handshake to be rejected")
			}
			if resp == nil || resp.StatusCode != 401 {
				t.Errorf("Expected a 401 response, got %+v", resp)
			}
		})
	}

	if f.hub.ClientCount() != 0 {
		t.Errorf("Expected no admitted clients, got %d", f.hub.ClientCount())
	}
}

func TestRoleCohorts(t *testing.T) {
	f := setupWS(t)
	_, teacherToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)

	teacherConn := f.dial(t, teacherToken)
	studentConn := f.dial(t, studentToken)

	f.hub.EmitToRole(models.RoleTeacher, "classNotice", map[string]string{"text": "staff only"})
	readEvent(t, teacherConn, "classNotice")
	assertNoEvent(t, studentConn, "classNotice")

	f.hub.EmitToAll("classNotice", map[string]string{"text": "everyone"})
	readEvent(t, teacherConn, "classNotice")
	readEvent(t, studentConn, "classNotice")
}

func TestPollScopeJoinAndLeave(t *testing.T) {
	f := setupWS(t)
	teacher, _ := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)
	pollID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusStarted, []string{"a", "b"}, 300)

	conn := f.dial(t, studentToken)

	// getPollStatus doubles as a barrier: replies come back in send order,
	// so its response means the preceding joinPoll has been processed.
	send(t, conn, models.EventJoinPoll, pollID)
	send(t, conn, models.EventGetPollStatus, pollID)
	readEvent(t, conn, models.EventPollStatus)

	f.hub.EmitToPoll(pollID, "scopedNotice", nil)
	readEvent(t, conn, "scopedNotice")

	send(t, conn, models.EventLeavePoll, pollID)
	send(t, conn, models.EventGetPollStatus, pollID)
	readEvent(t, conn, models.EventPollStatus)

	f.hub.EmitToPoll(pollID, "scopedNotice", nil)
	assertNoEvent(t, conn, "scopedNotice")
}

func TestStartPollOverSocket(t *testing.T) {
	f := setupWS(t)
	teacher, teacherToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)

	poll, err := f.svc.Create(models.CreatePollRequest{
		Title:    "Quiz",
		Question: "Q?",
		Options:  []string{"a", "b"},
		Duration: 300,
	}, teacher.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	teacherConn := f.dial(t, teacherToken)
	studentConn := f.dial(t, studentToken)

	send(t, teacherConn, models.EventStartPoll, map[string]string{"pollId": poll.ID})

	ack := readEvent(t, teacherConn, models.EventPollStartedAck)
	var payload models.PollStartedPayload
	if err := json.Unmarshal(ack.Data, &payload); err != nil {
		t.Fatalf("Failed to decode ack: %v", err)
	}
	if payload.PollID != poll.ID || payload.Status != models.WireStatusActive {
		t.Errorf("Unexpected ack payload: %+v", payload)
	}
	if payload.StartTime == "" || payload.EndTime == "" {
		t.Error("Expected the ack to carry the answer window")
	}

	// Everyone hears about the start; the confirmation stays private
	readEvent(t, studentConn, models.EventPollStarted)
	assertNoEvent(t, studentConn, models.EventPollStartedAck)
}

func TestStartPollOverSocketRejectsNonCreator(t *testing.T) {
	f := setupWS(t)
	teacher, _ := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)
	pollID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusCreated, []string{"a", "b"}, 300)

	conn := f.dial(t, studentToken)
	send(t, conn, models.EventStartPoll, pollID)

	errFrame := readEvent(t, conn, models.EventPollError)
	var payload models.PollErrorPayload
	if err := json.Unmarshal(errFrame.Data, &payload); err != nil {
		t.Fatalf("Failed to decode error payload: %v", err)
	}
	if payload.Message != "Failed to start poll" {
		t.Errorf("Unexpected error message: %+v", payload)
	}
}

func TestSubmitAnswerOverSocket(t *testing.T) {
	f := setupWS(t)
	teacher, teacherToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	student, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)
	pollID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusStarted, []string{"a", "b"}, 300)

	teacherConn := f.dial(t, teacherToken)
	studentConn := f.dial(t, studentToken)

	send(t, studentConn, models.EventSubmitAnswer, models.SubmitAnswerRequest{PollID: pollID, Option: "a"})

	submitted := readEvent(t, studentConn, models.EventAnswerSubmitted)
	var answer models.Answer
	if err := json.Unmarshal(submitted.Data, &answer); err != nil {
		t.Fatalf("Failed to decode answer: %v", err)
	}
	if answer.PollID != pollID || answer.UserID != student.ID || answer.Option != "a" {
		t.Errorf("Unexpected answer: %+v", answer)
	}

	// The updated poll goes out to everyone
	broadcast := readEvent(t, teacherConn, models.EventPollAnswered)
	var updated models.PollWithAnswers
	if err := json.Unmarshal(broadcast.Data, &updated); err != nil {
		t.Fatalf("Failed to decode broadcast: %v", err)
	}
	if len(updated.Answers) != 1 {
		t.Errorf("Expected 1 answer in the broadcast, got %d", len(updated.Answers))
	}
}

func TestSubmitAnswerOverSocketErrors(t *testing.T) {
	f := setupWS(t)
	teacher, _ := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)
	pollID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusCompleted, []string{"a", "b"}, 60)

	conn := f.dial(t, studentToken)
	send(t, conn, models.EventSubmitAnswer, models.SubmitAnswerRequest{PollID: pollID, Option: "a"})

	errFrame := readEvent(t, conn, models.EventPollError)
	var payload models.PollErrorPayload
	if err := json.Unmarshal(errFrame.Data, &payload); err != nil {
		t.Fatalf("Failed to decode error payload: %v", err)
	}
	if payload.Message != "Failed to submit answer" {
		t.Errorf("Unexpected error message: %+v", payload)
	}
}

func TestGetPollStatus(t *testing.T) {
	f := setupWS(t)
	teacher, _ := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleTeacher)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)
	activeID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusStarted, []string{"a", "b"}, 300)
	endedID := testutil.CreateTestPoll(t, f.conn, teacher.ID, models.StatusCompleted, []string{"a", "b"}, 60)

	conn := f.dial(t, studentToken)

	send(t, conn, models.EventGetPollStatus, activeID)
	status := readEvent(t, conn, models.EventPollStatus)
	var payload models.PollStatusPayload
	if err := json.Unmarshal(status.Data, &payload); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if payload.Status != models.WireStatusActive || payload.EndTime == "" {
		t.Errorf("Expected an active status with an end time, got %+v", payload)
	}

	send(t, conn, models.EventGetPollStatus, endedID)
	status = readEvent(t, conn, models.EventPollStatus)
	if err := json.Unmarshal(status.Data, &payload); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if payload.Status != models.WireStatusEnded {
		t.Errorf("Expected an ended status, got %+v", payload)
	}
}

func TestUnknownEvent(t *testing.T) {
	f := setupWS(t)
	_, studentToken := testutil.CreateTestUser(t, f.conn, f.cfg, models.RoleStudent)

	conn := f.dial(t, studentToken)
	send(t, conn, "definitelyNotAnEvent", nil)

	errFrame := readEvent(t, conn, models.EventPollError)
	var payload models.PollErrorPayload
	if err := json.Unmarshal(errFrame.Data, &payload); err != nil {
		t.Fatalf("Failed to decode error payload: %v", err)
	}
	if !strings.Contains(payload.Message, "Unknown event") {
		t.Errorf("Unexpected error message: %+v", payload)
	}
}
