// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/models"
)

type PollHandler struct {
	svc *lifecycle.Service
}

func NewPollHandler(svc *lifecycle.Service) *PollHandler {
	return &PollHandler{svc: svc}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.Create(req, user.ID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusCreated, poll, "Poll created successfully")
}

// GetAllPolls handles GET /polls
func (h *PollHandler) GetAllPolls(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	polls, err := h.svc.List(user.Role)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, polls, "Polls retrieved successfully")
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	poll, err := h.svc.Get(pollID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, poll, "Poll retrieved successfully")
}

// UpdatePoll handles PUT /polls/{id}
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.Update(pollID, req)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, poll, "Poll updated successfully")
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	if err := h.svc.Delete(pollID); err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, nil, "Poll deleted successfully")
}

// StartPoll handles POST /polls/{id}/start
func (h *PollHandler) StartPoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	pollID := r.PathValue("id")

	poll, err := h.svc.Start(pollID, user.ID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, poll, "Poll started successfully")
}

// EndPoll handles POST /polls/{id}/end
func (h *PollHandler) EndPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	poll, err := h.svc.End(pollID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, poll, "Poll Ended successfully")
}

// SubmitAnswer handles POST /polls/{id}/answers
func (h *PollHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	pollID := r.PathValue("id")

	var req models.SubmitAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.PollID = pollID

	answer, err := h.svc.SubmitAnswer(req, user.ID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusCreated, answer, "Answer submitted successfully")
}

// GetActivePoll handles GET /polls/active
// Having no active poll is a normal result, not an error.
func (h *PollHandler) GetActivePoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	poll, err := h.svc.ActivePoll(user.ID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	if poll == nil {
		middleware.DataResponse(w, http.StatusOK, nil, "No active poll")
		return
	}
	middleware.DataResponse(w, http.StatusOK, poll, "Active poll retrieved successfully")
}

// GetPollResults handles GET /polls/{id}/results
func (h *PollHandler) GetPollResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	results, err := h.svc.Results(pollID)
	if err != nil {
		middleware.FailWith(w, err)
		return
	}

	middleware.DataResponse(w, http.StatusOK, results, "Poll results retrieved successfully")
}
