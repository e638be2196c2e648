// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

Responses use one envelope everywhere: successes are {data, message},
failures {message} with the status derived from the domain error kind.

Authentication is two layers: WithUser resolves the Bearer token to an
existing user and stores it in the request context; RequireRole gates
creator-only routes to the TEACHER role.
*/
package middleware
