package models

import "time"

// User roles
const (
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// Poll status constants
const (
	StatusCreated   = "CREATED"
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
)

// Request types

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreatePollRequest struct {
	Title    string   `json:"title"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Duration int      `json:"duration"`
}

// UpdatePollRequest carries the mutable poll fields. Nil means "leave as is".
type UpdatePollRequest struct {
	Title    *string   `json:"title,omitempty"`
	Question *string   `json:"question,omitempty"`
	Options  *[]string `json:"options,omitempty"`
	Duration *int      `json:"duration,omitempty"`
}

type StartPollRequest struct {
	PollID string `json:"pollId"`
}

type SubmitAnswerRequest struct {
	PollID string `json:"pollId"`
	Option string `json:"option"`
}

// Response types

// Envelope is the uniform success body: {data, message}.
// Failures carry only {message}.
type Envelope struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// Domain types

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Never expose in JSON
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Poll struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	CreatedBy string     `json:"createdBy"`
	Duration  int        `json:"duration"` // seconds, fixed at creation
	Status    string     `json:"status"`
	IsActive  bool       `json:"isActive"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Answer struct {
	ID        string    `json:"id"`
	PollID    string    `json:"pollId"`
	UserID    string    `json:"userId"`
	Option    string    `json:"option"`
	CreatedAt time.Time `json:"createdAt"`
}

type PollWithAnswers struct {
	Poll
	Answers []Answer `json:"answers"`
}

// OptionCount is one tally row, reported in option order.
type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

type PollResults struct {
	PollID   string        `json:"pollId"`
	Title    string        `json:"title"`
	Question string        `json:"question"`
	Results  []OptionCount `json:"results"`
}
