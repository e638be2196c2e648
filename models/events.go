// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Live event names. Outbound events are broadcast by the lifecycle service
// through the ws hub; inbound events arrive on a client connection and mirror
// the REST surface.
const (
	// Outbound
	EventNewPoll         = "newPoll"
	EventPollUpdated     = "pollUpdated"
	EventPollDeleted     = "pollDeleted"
	EventPollStarted     = "pollStarted"
	EventPollStartedAck  = "pollStartedConfirmation"
	EventPollEnded       = "pollEnded"
	EventPollAnswered    = "pollAnswered"
	EventPollStatus      = "pollStatus"
	EventAnswerSubmitted = "answerSubmitted"
	EventPollError       = "pollError"

	// Inbound
	EventJoinPoll      = "joinPoll"
	EventLeavePoll     = "leavePoll"
	EventStartPoll     = "startPoll"
	EventGetPollStatus = "getPollStatus"
	EventSubmitAnswer  = "submitAnswer"
)

// Poll status strings used on the wire for pollStarted/pollStatus payloads.
const (
	WireStatusActive = "active"
	WireStatusEnded  = "ended"
)

// Event payloads. One struct per named event so payload shape is statically
// checkable; times are RFC3339 strings so clients can compute remaining time
// without another round-trip.

// PollStartedPayload is sent on pollStarted (poll scope) and
// pollStartedConfirmation (originating client).
type PollStartedPayload struct {
	PollID    string `json:"pollId"`
	Status    string `json:"status"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// PollStatusPayload answers a getPollStatus request. StartTime/EndTime are
// empty when the poll has ended.
type PollStatusPayload struct {
	PollID    string `json:"pollId"`
	Status    string `json:"status"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// PollDeletedPayload carries only the id of the removed poll.
type PollDeletedPayload struct {
	PollID string `json:"pollId"`
}

// PollErrorPayload is delivered only to the connection whose inbound event
// failed; it is never broadcast.
type PollErrorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
