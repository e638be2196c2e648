// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally caches per-option answer counts in Redis.

One sorted set per poll, option value as member, count as score. The cache is
best-effort: writes happen asynchronously after an answer is stored, reads
fall back to a SQL GROUP BY when the key is missing or Redis errors. Running
without Redis at all is supported; the server just always takes the database
path.
*/
package tally
