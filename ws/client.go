// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Message is the wire frame for both directions: a named event plus its
// payload.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one live connection: an immutable authenticated identity plus a
// mutable set of scope memberships.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	user models.User

	send chan Message

	mu     sync.RWMutex
	scopes map[string]bool
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, user models.User) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		user:   user,
		send:   make(chan Message, sendBuffer),
		scopes: make(map[string]bool),
	}
}

func (c *Client) joinScope(scope string) {
	c.mu.Lock()
	c.scopes[scope] = true
	c.mu.Unlock()
}

func (c *Client) leaveScope(scope string) {
	c.mu.Lock()
	delete(c.scopes, scope)
	c.mu.Unlock()
}

func (c *Client) inScope(scope string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scopes[scope]
}

// trySend queues a message without blocking; a client whose buffer is full
// is dropped rather than stalling the broadcast. The send happens under the
// read lock so close cannot close the channel mid-send; a broadcast racing a
// disconnect drops the message instead of panicking.
func (c *Client) trySend(msg Message) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}

	select {
	case c.send <- msg:
		c.mu.RUnlock()
	default:
		// Release before remove: remove calls close, which needs the write
		// lock.
		c.mu.RUnlock()
		slog.Warn("dropping slow ws client", "user_id", c.user.ID)
		c.hub.remove(c)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("ws read error", "user_id", c.user.ID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.trySend(Message{Event: models.EventPollError, Data: models.PollErrorPayload{Message: "Invalid message"}})
			continue
		}

		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle dispatches one inbound event. Failures go back to this connection
// only, as a pollError; the connection itself is never aborted.
func (c *Client) handle(msg inboundMessage) {
	switch msg.Event {
	case models.EventJoinPoll:
		pollID, err := decodePollID(msg.Data)
		if err != nil {
			c.sendError("Failed to join poll", err)
			return
		}
		c.joinScope(PollScope(pollID))

	case models.EventLeavePoll:
		pollID, err := decodePollID(msg.Data)
		if err != nil {
			c.sendError("Failed to leave poll", err)
			return
		}
		c.leaveScope(PollScope(pollID))

	case models.EventStartPoll:
		pollID, err := decodePollID(msg.Data)
		if err != nil {
			c.sendError("Failed to start poll", err)
			return
		}
		poll, err := c.hub.svc.Start(pollID, c.user.ID)
		if err != nil {
			c.sendError("Failed to start poll", err)
			return
		}
		c.trySend(Message{Event: models.EventPollStartedAck, Data: lifecycle.StartedPayload(poll)})

	case models.EventGetPollStatus:
		pollID, err := decodePollID(msg.Data)
		if err != nil {
			c.sendError("Failed to get poll status", err)
			return
		}
		poll, err := c.hub.svc.Get(pollID)
		if err != nil {
			c.sendError("Failed to get poll status", err)
			return
		}
		c.trySend(Message{Event: models.EventPollStatus, Data: statusPayload(&poll.Poll)})

	case models.EventSubmitAnswer:
		var req models.SubmitAnswerRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.sendError("Failed to submit answer", err)
			return
		}
		answer, err := c.hub.svc.SubmitAnswer(req, c.user.ID)
		if err != nil {
			c.sendError("Failed to submit answer", err)
			return
		}
		c.trySend(Message{Event: models.EventAnswerSubmitted, Data: answer})

	default:
		c.trySend(Message{Event: models.EventPollError, Data: models.PollErrorPayload{Message: "Unknown event: " + msg.Event}})
	}
}

func (c *Client) sendError(message string, err error) {
	payload := models.PollErrorPayload{Message: message}
	if err != nil {
		payload.Error = err.Error()
	}
	c.trySend(Message{Event: models.EventPollError, Data: payload})
}

func statusPayload(poll *models.Poll) models.PollStatusPayload {
	if !poll.IsActive || (poll.EndTime != nil && time.Now().After(*poll.EndTime)) {
		return models.PollStatusPayload{PollID: poll.ID, Status: models.WireStatusEnded}
	}

	payload := models.PollStatusPayload{PollID: poll.ID, Status: models.WireStatusActive}
	if poll.StartTime != nil {
		payload.StartTime = poll.StartTime.Format(time.RFC3339)
	}
	if poll.EndTime != nil {
		payload.EndTime = poll.EndTime.Format(time.RFC3339)
	}
	return payload
}

// decodePollID accepts either a bare JSON string or {"pollId": "..."} so the
// event API matches clients sending both shapes.
func decodePollID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil && id != "" {
		return id, nil
	}

	var req models.StartPollRequest
	if err := json.Unmarshal(data, &req); err == nil && req.PollID != "" {
		return req.PollID, nil
	}

	return "", errors.New("pollId is required")
}
