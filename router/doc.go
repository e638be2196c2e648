// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes using Go 1.22+ method routing.

The REST surface and the /ws live connection are two entry points into the
same lifecycle service. Route gating mirrors the domain rules: creating,
updating, deleting, starting, and ending polls (and reading one's active
poll) require the TEACHER role; reading and answering require only
authentication.
*/
package router
