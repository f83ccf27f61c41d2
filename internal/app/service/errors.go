package service

import "errors"

// ErrGone marks a record whose expiry timestamp has passed. The HTTP layer
// translates it to 410.
var ErrGone = errors.New("url has expired")

// ErrCodeTaken is returned when a custom code collides with an existing
// active code. Unlike a generation race this is user-facing and not retried.
var ErrCodeTaken = errors.New("short code is already taken")

// ErrInvalidCode is returned for malformed custom codes.
var ErrInvalidCode = errors.New("short code is invalid")

// ErrGenerationExhausted is returned when the bounded retry budget for
// random code generation runs out.
var ErrGenerationExhausted = errors.New("could not generate a unique short code")
