// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the classpulse API server.

Classpulse runs timed classroom polls: a teacher opens a poll with a fixed
duration, students submit one answer each while it is open, and every
connected client receives live updates as the poll starts, collects answers,
and ends on its wall-clock deadline.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=classpulse.db TOKEN_SECRET=... go run main.go

Or with flags:

	go run main.go -p 5000 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - TOKEN_SECRET (--token-secret): Secret for access token HMAC

Optional settings:

  - PORT (-p): Server port (default: 5000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_ADDR (--redis): Redis address, enables the answer tally cache
  - ORIGIN (--origin): allowed CORS/websocket origin

# Architecture

The server uses a handler-based architecture with dependency injection:

  - lifecycle: the poll state machine and broadcast decisions
  - scheduler: cancellable auto-end deadlines
  - ws: session registry and broadcast fan-out over websockets
  - store: poll/answer/user repositories
  - handlers: HTTP request handlers (polls, auth)
  - router: Route definitions using Go 1.22+ routing
  - middleware: auth, roles, CORS, logging, JSON helpers
  - models: domain types and the live event vocabulary
  - tally: optional Redis per-option answer counters
  - auth: token issuance/verification, password hashing
  - db: connection and schema creation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
