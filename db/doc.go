// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection and schema creation.

Two drivers are supported: PostgreSQL (lib/pq) for production and SQLite
(modernc.org/sqlite, pure Go) for local development and the test suite. The
schema is written in the portable subset both accept; poll options are stored
as a JSON text column because their order is semantically meaningful and they
are only ever read back as a whole.

Answers reference their poll with ON DELETE CASCADE, so deleting a poll
removes its answers in the same statement.
*/
package db
