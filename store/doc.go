// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store provides the repositories over the SQL database: PollStore for
poll and answer records, UserStore for accounts.

The stores are plain CRUD plus filtered lookups. Absent rows surface as
sql.ErrNoRows so callers can translate them into domain errors; no lifecycle
rule is enforced here.
*/
package store
