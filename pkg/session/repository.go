package session

import (
	"context"
	"errors"
)

// ErrNoSession is returned when no session record is cached
var ErrNoSession = errors.New("no cached session")

// Repository owns the single cached session record. Nothing outside this
// package mutates the record directly; all writes go through the reconciler
// or an authentication flow saving its result.
type Repository interface {
	// Load returns the cached record, or ErrNoSession
	Load(ctx context.Context) (Record, error)

	// Save stores the record, replacing any existing one
	Save(ctx context.Context, rec Record) error

	// Clear removes the cached record. Clearing an empty cache is not an error.
	Clear(ctx context.Context) error
}
