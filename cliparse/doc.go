// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment
variables, with a .env file loaded first when present.

Precedence: CLI flag, then environment variable, then default.

Required settings:

  - DATABASE_URL (-d): connection string
  - TOKEN_SECRET (--token-secret): HMAC secret for access tokens

Optional settings:

  - PORT (-p): server port (default 5000)
  - DATABASE_TYPE (-t): sqlite or postgres (default sqlite)
  - REDIS_ADDR (--redis): enables the Redis tally cache
  - ORIGIN (--origin): restrict CORS and websocket origin
*/
package cliparse
