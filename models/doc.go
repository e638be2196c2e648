// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types, request/response types, and live
event vocabulary shared across the server.

# Domain Types

  - User: an account with a TEACHER or STUDENT role
  - Poll: one timed question-with-options session owned by its creator
  - Answer: one respondent's chosen option for one poll
  - PollWithAnswers, PollResults: read-side composites

A poll moves CREATED -> STARTED -> COMPLETED and never back. IsActive is a
denormalized view of that status: true exactly while the poll is STARTED and
inside its [startTime, endTime) window.

# Events

Every live event has a name constant and, where the payload is not simply a
domain type, a dedicated payload struct. This keeps the set of broadcast
shapes closed; handlers never emit free-form maps.

# Conventions

All types use JSON tags in camelCase to match the HTTP API. Sensitive fields
(password) use `json:"-"` and are never serialized.
*/
package models
