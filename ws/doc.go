// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws is the live connection layer: session registry, scope membership,
and broadcast fan-out over websockets.

# Admission

Every connection must present a token in the handshake (query parameter or
Authorization header). The token is verified and the user loaded; on any
failure the handshake is rejected with 401 before the upgrade. Admitted
clients carry their identity for the connection's lifetime and are
auto-joined to their role cohort ("teachers" or "students").

# Scopes

Three audience kinds: global (every client), the two role cohorts, and
per-poll scopes ("poll_{id}") joined and left via the joinPoll/leavePoll
events. A client may be in many poll scopes at once.

# Events

Frames are JSON: {"event": name, "data": payload}. Inbound events
(joinPoll, leavePoll, startPoll, getPollStatus, submitAnswer) run through the
same lifecycle service as the REST handlers — same validation, same
transitions. A failed inbound event produces a pollError frame on the
originating connection only.

Delivery is best-effort. There is no acknowledgement and nothing is queued
for disconnected clients; a client that cannot drain its send buffer is
dropped.
*/
package ws
