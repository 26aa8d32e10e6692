package verification

import "errors"

var (
	// ErrMalformedIdentifier is returned when a contact identifier cannot be
	// normalized for its channel. Not retryable by waiting.
	ErrMalformedIdentifier = errors.New("malformed contact identifier")
)
