// Package auth implements the signed-session authentication protocol:
// recoverable-signature login and encrypted, time-bounded session tokens.
package auth

import "errors"

var (
	// ErrInvalidSignature is returned when a login signature does not
	// verify or its timestamp is outside the anti-replay window.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidToken covers every session token rejection: decryption
	// failure, malformed payload, expiry, or a future creation time.
	// Validation fails closed; a bad token is never treated as valid.
	ErrInvalidToken = errors.New("invalid session token")
)
