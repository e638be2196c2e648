// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token issuance/verification and password hashing.

Access tokens are stateless HMAC-SHA256 signed values: the transport layer
calls VerifyToken(token, secret) to resolve a user id, then looks the user up
to confirm it still exists. There is no server-side token state and no
expiry; revocation means deleting the user.

Passwords are hashed with bcrypt at the default cost.
*/
package auth
