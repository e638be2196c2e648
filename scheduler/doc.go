// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler provides cancellable one-shot deadline timers keyed by
poll id.

The lifecycle service arms a deadline when a poll starts and cancels it when
the poll ends early or is deleted. A timer that loses the race with Cancel
never runs its callback; a callback that has already begun cannot be stopped,
which is tolerated because ending a poll is idempotent.

Pending deadlines are process-local and do not survive a restart. The server
compensates at startup by sweeping STARTED polls: overdue ones are ended
immediately and the rest are re-armed from their persisted end_time.
*/
package scheduler
