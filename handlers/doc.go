// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers.

PollHandler is a thin shell over the lifecycle service: parse, delegate,
translate the domain error kind into a status code, wrap the result in the
response envelope. AuthHandler covers signup and login and issues access
tokens.

The same lifecycle operations are reachable over the live connection (see
the ws package); the two transports share every rule.
*/
package handlers
