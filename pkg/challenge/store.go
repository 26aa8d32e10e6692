package challenge

import (
	"context"
	"errors"
)

var (
	// ErrChallengeNotFound is returned when no challenge exists for the key
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired is returned when the challenge for the key exists
	// but its TTL has passed. The challenge data accompanies the error so
	// callers can still classify the attempt as expired rather than absent.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrStoreUnavailable is returned when the backing store cannot be reached
	ErrStoreUnavailable = errors.New("challenge store unavailable")
)

// Store defines the keyed, TTL-bearing container of outstanding verification
// challenges. All mutations are atomic per (channel, identifier) key.
//
// Get performs a lazy sweep: expired entries are removed as a side effect of
// every read, so correctness never depends on a background scheduler. A Get
// that finds an expired entry for the requested key removes it and returns
// the stale challenge together with ErrChallengeExpired.
type Store interface {
	// Put stores a challenge, overwriting any existing one for its key
	Put(ctx context.Context, ch Challenge) error

	// Get returns the live challenge for the key
	Get(ctx context.Context, identifier string, channel Channel) (Challenge, error)

	// Remove deletes the challenge for the key. Removing an absent key is not an error.
	Remove(ctx context.Context, identifier string, channel Channel) error

	// Sweep removes all challenges whose TTL has passed
	Sweep(ctx context.Context) error
}
