package auth

import "errors"

var (
	// ErrUnauthorized is the uniform failure for every credential check.
	// The real cause is only ever logged, never returned to the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmailTaken signals a duplicate registration.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTokenNotFound covers missing, expired and already-consumed
	// verification tokens alike.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrMalformedToken signals a session token whose signature or payload
	// does not validate.
	ErrMalformedToken = errors.New("malformed session token")
)
