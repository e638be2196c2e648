// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/classpulse/models"
)

// PollStore is the repository for poll and answer records. It holds no
// business logic; lifecycle rules live in the lifecycle package.
type PollStore struct {
	db *sql.DB
}

func NewPollStore(db *sql.DB) *PollStore {
	return &PollStore{db: db}
}

const pollColumns = `id, title, question, options, created_by, duration, status, is_active, start_time, end_time, created_at, updated_at`

func scanPoll(row interface{ Scan(...interface{}) error }) (*models.Poll, error) {
	var poll models.Poll
	var optionsJSON string
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Question, &optionsJSON, &poll.CreatedBy,
		&poll.Duration, &poll.Status, &poll.IsActive, &poll.StartTime,
		&poll.EndTime, &poll.CreatedAt, &poll.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(optionsJSON), &poll.Options); err != nil {
		return nil, fmt.Errorf("failed to decode poll options: %w", err)
	}
	return &poll, nil
}

// Create inserts a new poll in CREATED state. The ID and timestamps are
// assigned here.
func (s *PollStore) Create(title, question string, options []string, duration int, createdBy string) (*models.Poll, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll options: %w", err)
	}

	now := time.Now().UTC()
	poll := &models.Poll{
		ID:        uuid.NewString(),
		Title:     title,
		Question:  question,
		Options:   options,
		CreatedBy: createdBy,
		Duration:  duration,
		Status:    models.StatusCreated,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(`
		INSERT INTO poll (id, title, question, options, created_by, duration, status, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, poll.ID, poll.Title, poll.Question, string(optionsJSON), poll.CreatedBy,
		poll.Duration, poll.Status, poll.IsActive, poll.CreatedAt, poll.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	return poll, nil
}

// Get returns the poll without its answers. Returns sql.ErrNoRows if absent.
func (s *PollStore) Get(id string) (*models.Poll, error) {
	row := s.db.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	return scanPoll(row)
}

// GetWithAnswers returns the poll together with all of its answers.
func (s *PollStore) GetWithAnswers(id string) (*models.PollWithAnswers, error) {
	poll, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	answers, err := s.AnswersForPoll(id)
	if err != nil {
		return nil, err
	}

	return &models.PollWithAnswers{Poll: *poll, Answers: answers}, nil
}

// Update applies the mutable fields (title, question, options, duration) and
// returns the updated poll. Status and activity are not touched here.
func (s *PollStore) Update(id string, req models.UpdatePollRequest) (*models.Poll, error) {
	poll, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		poll.Title = *req.Title
	}
	if req.Question != nil {
		poll.Question = *req.Question
	}
	if req.Options != nil {
		poll.Options = *req.Options
	}
	if req.Duration != nil {
		poll.Duration = *req.Duration
	}
	poll.UpdatedAt = time.Now().UTC()

	optionsJSON, err := json.Marshal(poll.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll options: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE poll
		SET title = $1, question = $2, options = $3, duration = $4, updated_at = $5
		WHERE id = $6
	`, poll.Title, poll.Question, string(optionsJSON), poll.Duration, poll.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update poll: %w", err)
	}

	return poll, nil
}

// Delete removes the poll; answers go with it via ON DELETE CASCADE.
// Returns sql.ErrNoRows if the poll does not exist.
func (s *PollStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM poll WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkStarted sets both timestamps atomically along with STARTED status.
func (s *PollStore) MarkStarted(id string, startTime, endTime time.Time) (*models.Poll, error) {
	_, err := s.db.Exec(`
		UPDATE poll
		SET status = $1, is_active = TRUE, start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $5
	`, models.StatusStarted, startTime, endTime, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to start poll: %w", err)
	}
	return s.Get(id)
}

// MarkCompleted flips the poll to COMPLETED and inactive. It intentionally
// re-applies the same values on an already-completed poll; start_time and
// end_time are never modified.
func (s *PollStore) MarkCompleted(id string) (*models.Poll, error) {
	res, err := s.db.Exec(`
		UPDATE poll
		SET status = $1, is_active = FALSE, updated_at = $2
		WHERE id = $3
	`, models.StatusCompleted, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to end poll: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.Get(id)
}

// FindActiveByCreator returns the creator's active poll, or sql.ErrNoRows if
// they have none.
func (s *PollStore) FindActiveByCreator(creatorID string) (*models.Poll, error) {
	row := s.db.QueryRow(`
		SELECT `+pollColumns+`
		FROM poll
		WHERE created_by = $1 AND is_active = TRUE AND status = $2
	`, creatorID, models.StatusStarted)
	return scanPoll(row)
}

// List returns polls newest first, with their answers. When completedOnly is
// set only COMPLETED, inactive polls are returned.
func (s *PollStore) List(completedOnly bool) ([]models.PollWithAnswers, error) {
	query := `SELECT ` + pollColumns + ` FROM poll ORDER BY created_at DESC`
	args := []interface{}{}
	if completedOnly {
		query = `SELECT ` + pollColumns + ` FROM poll WHERE status = $1 AND is_active = FALSE ORDER BY created_at DESC`
		args = append(args, models.StatusCompleted)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := []models.PollWithAnswers{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, models.PollWithAnswers{Poll: *poll})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range polls {
		answers, err := s.AnswersForPoll(polls[i].ID)
		if err != nil {
			return nil, err
		}
		polls[i].Answers = answers
	}

	return polls, nil
}

// InsertAnswer records one respondent's submission.
func (s *PollStore) InsertAnswer(pollID, userID, option string) (*models.Answer, error) {
	answer := &models.Answer{
		ID:        uuid.NewString(),
		PollID:    pollID,
		UserID:    userID,
		Option:    option,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO answer (id, poll_id, user_id, option, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, answer.ID, answer.PollID, answer.UserID, answer.Option, answer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert answer: %w", err)
	}

	return answer, nil
}

// AnswersForPoll returns all answers for a poll in submission order.
func (s *PollStore) AnswersForPoll(pollID string) ([]models.Answer, error) {
	rows, err := s.db.Query(`
		SELECT id, poll_id, user_id, option, created_at
		FROM answer
		WHERE poll_id = $1
		ORDER BY created_at
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.PollID, &a.UserID, &a.Option, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountByOption tallies answers per option value.
func (s *PollStore) CountByOption(pollID string) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT option, COUNT(*)
		FROM answer
		WHERE poll_id = $1
		GROUP BY option
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var option string
		var count int
		if err := rows.Scan(&option, &count); err != nil {
			return nil, err
		}
		counts[option] = count
	}
	return counts, rows.Err()
}

// ListOverdue returns polls still marked STARTED whose end_time has passed.
// Used by the startup sweep; pending deadlines do not survive a restart.
func (s *PollStore) ListOverdue(now time.Time) ([]models.Poll, error) {
	rows, err := s.db.Query(`
		SELECT `+pollColumns+`
		FROM poll
		WHERE status = $1 AND end_time IS NOT NULL AND end_time <= $2
	`, models.StatusStarted, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, *poll)
	}
	return polls, rows.Err()
}

// ListRunning returns polls still marked STARTED whose end_time is in the
// future, so their deadlines can be re-armed after a restart.
func (s *PollStore) ListRunning(now time.Time) ([]models.Poll, error) {
	rows, err := s.db.Query(`
		SELECT `+pollColumns+`
		FROM poll
		WHERE status = $1 AND end_time IS NOT NULL AND end_time > $2
	`, models.StatusStarted, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query running polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, *poll)
	}
	return polls, rows.Err()
}
