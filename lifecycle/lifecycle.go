// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/classpulse/apperr"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/scheduler"
	"github.com/danielhkuo/classpulse/store"
)

// Notifier is the broadcast surface the lifecycle uses to reach connected
// clients. The ws hub implements it; tests substitute a recorder.
type Notifier interface {
	EmitToAll(event string, payload interface{})
	EmitToRole(role, event string, payload interface{})
	EmitToPoll(pollID, event string, payload interface{})
	EmitToUser(userID, event string, payload interface{})
}

// TallyCache is the optional fast path for per-option answer counts.
type TallyCache interface {
	Increment(pollID, option string) error
	Counts(pollID string) (map[string]int, bool, error)
	Drop(pollID string) error
}

// Service is the poll lifecycle state machine. All state transitions flow
// through here, from both the REST handlers and the ws hub.
type Service struct {
	polls    *store.PollStore
	sched    *scheduler.Scheduler
	notifier Notifier
	tally    TallyCache // may be nil

	locks keyedMutex
}

func NewService(polls *store.PollStore, sched *scheduler.Scheduler, notifier Notifier, tally TallyCache) *Service {
	return &Service{
		polls:    polls,
		sched:    sched,
		notifier: notifier,
		tally:    tally,
	}
}

// Create inserts a new poll in CREATED state and announces it globally.
// Fails with Conflict while the creator still has an active poll.
func (s *Service) Create(req models.CreatePollRequest, creatorID string) (*models.Poll, error) {
	if err := validatePollFields(req.Title, req.Question, req.Options, req.Duration); err != nil {
		return nil, err
	}

	_, err := s.polls.FindActiveByCreator(creatorID)
	if err == nil {
		return nil, apperr.Conflict("You already have an active poll. Please end it before creating a new one.")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check active polls: %w", err)
	}

	poll, err := s.polls.Create(req.Title, req.Question, req.Options, req.Duration, creatorID)
	if err != nil {
		return nil, err
	}

	slog.Info("poll created", "poll_id", poll.ID, "creator", creatorID)
	s.notifier.EmitToAll(models.EventNewPoll, poll)
	return poll, nil
}

// Get returns the poll with its answers.
func (s *Service) Get(pollID string) (*models.PollWithAnswers, error) {
	poll, err := s.polls.GetWithAnswers(pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	return poll, err
}

// Update changes the mutable fields and announces the new shape globally.
// Status and activity are unaffected.
func (s *Service) Update(pollID string, req models.UpdatePollRequest) (*models.Poll, error) {
	if err := validatePollUpdate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(pollID)
	defer unlock()

	poll, err := s.polls.Update(pollID, req)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("poll updated", "poll_id", pollID)
	s.notifier.EmitToAll(models.EventPollUpdated, poll)
	return poll, nil
}

// Delete removes the poll and its answers, disarms any pending deadline, and
// announces the deletion (id only) globally. A second delete of the same id
// fails with NotFound.
func (s *Service) Delete(pollID string) error {
	unlock := s.locks.lock(pollID)
	defer unlock()

	err := s.polls.Delete(pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Poll not found")
	}
	if err != nil {
		return err
	}

	s.sched.Cancel(pollID)
	if s.tally != nil {
		if err := s.tally.Drop(pollID); err != nil {
			slog.Warn("failed to drop tally cache", "poll_id", pollID, "error", err)
		}
	}

	slog.Info("poll deleted", "poll_id", pollID)
	s.notifier.EmitToAll(models.EventPollDeleted, models.PollDeletedPayload{PollID: pollID})
	return nil
}

// Start opens the answer window: sets startTime/endTime atomically, arms the
// auto-end deadline, and announces the start globally and to the poll scope.
// Only the creator may start their own poll, and only while they have no
// other active one.
func (s *Service) Start(pollID, requesterID string) (*models.Poll, error) {
	unlock := s.locks.lock(pollID)
	defer unlock()

	poll, err := s.polls.Get(pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	if err != nil {
		return nil, err
	}

	if poll.CreatedBy != requesterID {
		return nil, apperr.Forbidden("You don't have permission to start this poll")
	}
	if poll.IsActive {
		return nil, apperr.Conflict("This poll is already active")
	}

	_, err = s.polls.FindActiveByCreator(requesterID)
	if err == nil {
		return nil, apperr.Conflict("You already have an active poll. Please end it before starting a new one.")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check active polls: %w", err)
	}

	startTime := time.Now().UTC()
	endTime := startTime.Add(time.Duration(poll.Duration) * time.Second)

	started, err := s.polls.MarkStarted(pollID, startTime, endTime)
	if err != nil {
		return nil, err
	}

	s.armDeadline(pollID, time.Duration(poll.Duration)*time.Second)

	slog.Info("poll started", "poll_id", pollID, "ends", humanize.Time(endTime))
	s.notifier.EmitToAll(models.EventPollStarted, started)
	s.notifier.EmitToPoll(pollID, models.EventPollStarted, StartedPayload(started))
	return started, nil
}

// End closes the poll: COMPLETED, inactive, deadline disarmed. Calling it on
// an already-completed poll re-applies the same terminal state and
// re-broadcasts; startTime/endTime are never changed.
func (s *Service) End(pollID string) (*models.Poll, error) {
	unlock := s.locks.lock(pollID)
	defer unlock()

	// Cancel first so an explicit early end always beats the pending timer.
	s.sched.Cancel(pollID)

	poll, err := s.polls.MarkCompleted(pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	if err != nil {
		return nil, err
	}

	slog.Info("poll ended", "poll_id", pollID)
	s.notifier.EmitToAll(models.EventPollEnded, poll)
	s.notifier.EmitToPoll(pollID, models.EventPollEnded, poll)
	return poll, nil
}

// SubmitAnswer records one answer while the poll is inside its open window.
// The endTime check is authoritative: an answer one tick past the deadline
// fails with Conflict even if the timer callback has not run yet.
func (s *Service) SubmitAnswer(req models.SubmitAnswerRequest, userID string) (*models.Answer, error) {
	var violations []string
	if req.PollID == "" {
		violations = append(violations, "pollId is required")
	}
	if req.Option == "" {
		violations = append(violations, "option is required")
	}
	if len(violations) > 0 {
		return nil, apperr.Validation(strings.Join(violations, "; "))
	}

	unlock := s.locks.lock(req.PollID)
	defer unlock()

	poll, err := s.polls.Get(req.PollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	if err != nil {
		return nil, err
	}

	if !poll.IsActive {
		return nil, apperr.Conflict("This poll is not active")
	}
	if poll.EndTime != nil && time.Now().After(*poll.EndTime) {
		return nil, apperr.Conflict("Poll has ended")
	}
	if !containsOption(poll.Options, req.Option) {
		return nil, apperr.Validation("option is not one of the poll's options")
	}

	answer, err := s.polls.InsertAnswer(req.PollID, userID, req.Option)
	if err != nil {
		return nil, err
	}

	if s.tally != nil {
		// Best-effort counter; the database remains the source of truth.
		go func() {
			if err := s.tally.Increment(req.PollID, req.Option); err != nil {
				slog.Warn("failed to update tally cache", "poll_id", req.PollID, "error", err)
			}
		}()
	}

	updated, err := s.polls.GetWithAnswers(req.PollID)
	if err != nil {
		return nil, err
	}

	s.notifier.EmitToAll(models.EventPollAnswered, updated)
	s.notifier.EmitToPoll(req.PollID, models.EventPollAnswered, updated)
	return answer, nil
}

// ActivePoll returns the creator's currently active poll, or nil (not an
// error) when they have none. Used by clients to resume state on reconnect.
func (s *Service) ActivePoll(creatorID string) (*models.Poll, error) {
	poll, err := s.polls.FindActiveByCreator(creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return poll, err
}

// Results tallies answers per option, preserving option order. Works in any
// poll state. Counts come from the tally cache when warm, the database
// otherwise.
func (s *Service) Results(pollID string) (*models.PollResults, error) {
	poll, err := s.polls.Get(pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Poll not found")
	}
	if err != nil {
		return nil, err
	}

	var counts map[string]int
	if s.tally != nil {
		cached, found, err := s.tally.Counts(pollID)
		if err != nil {
			slog.Warn("tally cache unavailable, counting from database", "poll_id", pollID, "error", err)
		} else if found {
			counts = cached
		}
	}
	if counts == nil {
		counts, err = s.polls.CountByOption(pollID)
		if err != nil {
			return nil, err
		}
	}

	results := make([]models.OptionCount, 0, len(poll.Options))
	for _, option := range poll.Options {
		results = append(results, models.OptionCount{Option: option, Count: counts[option]})
	}

	return &models.PollResults{
		PollID:   poll.ID,
		Title:    poll.Title,
		Question: poll.Question,
		Results:  results,
	}, nil
}

// List returns polls visible to the given role: students see only completed,
// inactive polls; any other role sees everything. Newest first.
func (s *Service) List(role string) ([]models.PollWithAnswers, error) {
	return s.polls.List(role == models.RoleStudent)
}

// RestoreDeadlines is the startup sweep for polls that were STARTED when the
// process last stopped: overdue ones are ended now, running ones get their
// deadline re-armed from the persisted endTime.
func (s *Service) RestoreDeadlines() error {
	now := time.Now().UTC()

	overdue, err := s.polls.ListOverdue(now)
	if err != nil {
		return err
	}
	for _, poll := range overdue {
		if _, err := s.End(poll.ID); err != nil {
			slog.Error("failed to end overdue poll", "poll_id", poll.ID, "error", err)
		}
	}

	running, err := s.polls.ListRunning(now)
	if err != nil {
		return err
	}
	for _, poll := range running {
		remaining := poll.EndTime.Sub(now)
		s.armDeadline(poll.ID, remaining)
		slog.Info("re-armed poll deadline", "poll_id", poll.ID, "ends", humanize.Time(*poll.EndTime))
	}

	return nil
}

func (s *Service) armDeadline(pollID string, delay time.Duration) {
	s.sched.Schedule(pollID, delay, func() {
		// Fire-and-forget: an auto-end failure is logged, not retried.
		if _, err := s.End(pollID); err != nil {
			slog.Error("failed to auto-end poll", "poll_id", pollID, "error", err)
		}
	})
}

// StartedPayload builds the wire payload for pollStarted and
// pollStartedConfirmation with RFC3339 times.
func StartedPayload(poll *models.Poll) models.PollStartedPayload {
	payload := models.PollStartedPayload{
		PollID: poll.ID,
		Status: models.WireStatusActive,
	}
	if poll.StartTime != nil {
		payload.StartTime = poll.StartTime.Format(time.RFC3339)
	}
	if poll.EndTime != nil {
		payload.EndTime = poll.EndTime.Format(time.RFC3339)
	}
	return payload
}

func validatePollFields(title, question string, options []string, duration int) error {
	var violations []string
	if title == "" {
		violations = append(violations, "title is required")
	}
	if question == "" {
		violations = append(violations, "question is required")
	}
	if len(options) < 2 {
		violations = append(violations, "at least two options are required")
	}
	if duration <= 0 {
		violations = append(violations, "duration must be a positive integer")
	}
	if len(violations) > 0 {
		return apperr.Validation(strings.Join(violations, "; "))
	}
	return nil
}

func validatePollUpdate(req models.UpdatePollRequest) error {
	var violations []string
	if req.Title != nil && *req.Title == "" {
		violations = append(violations, "title must not be empty")
	}
	if req.Question != nil && *req.Question == "" {
		violations = append(violations, "question must not be empty")
	}
	if req.Options != nil && len(*req.Options) < 2 {
		violations = append(violations, "at least two options are required")
	}
	if req.Duration != nil && *req.Duration <= 0 {
		violations = append(violations, "duration must be a positive integer")
	}
	if len(violations) > 0 {
		return apperr.Validation(strings.Join(violations, "; "))
	}
	return nil
}

func containsOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
