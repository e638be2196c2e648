// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle implements the poll state machine: create, start, end,
delete, answer, tally, and the single-active-poll rule.

# Rules

  - A creator has at most one active poll at a time, checked point-in-time
    before create and again before start.
  - Starting sets startTime and endTime = startTime + duration together and
    arms an auto-end deadline.
  - Ending is idempotent in its state writes: COMPLETED and inactive are
    re-applied on repeat calls, the timestamps never change, and the end
    broadcast is re-sent. Clients must treat repeated pollEnded events as
    idempotent.
  - Answers are accepted only while the poll is active and now < endTime.
    The time check stands on its own; the deadline timer is just a trigger.

# Broadcasts

Every state transition fans out through the injected Notifier: newPoll,
pollUpdated and pollDeleted go to everyone; pollStarted, pollEnded and
pollAnswered additionally go to the poll's own scope. The service never
reaches into transport state.

# Concurrency

Operations for the same poll id are serialized by a keyed mutex. The
explicit-end vs. timer-fire race resolves safely either way: End cancels the
pending deadline before writing, and a timer that fires anyway just re-applies
the terminal state. The create/start active-poll check is a read-then-write
sequence; two racing calls by the same creator can both pass it, which matches
the reference behavior and is documented rather than closed.
*/
package lifecycle
