// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the closed error taxonomy for the poll service.

Five kinds cover every domain failure:

  - NotFound: referenced poll or user does not exist (404)
  - Conflict: lifecycle rule violation — active poll exists, poll not
    active, poll ended, duplicate email (409)
  - Forbidden: caller lacks permission for a creator-only action (403)
  - Authentication: token missing, invalid, or unverifiable (401)
  - Validation: malformed input, all field violations joined into one
    message (400)

HTTP handlers and the ws hub translate kinds centrally via StatusCode; the
lifecycle service itself never sees a status code.
*/
package apperr
