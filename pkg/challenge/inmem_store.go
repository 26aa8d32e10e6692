package challenge

import (
	"context"
	"sync"
	"time"
)

type storeKey struct {
	channel    Channel
	identifier string
}

// InMemStore implements Store using in-memory storage
type InMemStore struct {
	mu         sync.Mutex
	challenges map[storeKey]Challenge
	now        func() time.Time
}

// NewInMemStore creates a new in-memory challenge store
func NewInMemStore() *InMemStore {
	return &InMemStore{
		challenges: make(map[storeKey]Challenge),
		now:        time.Now,
	}
}

// NewInMemStoreWithClock creates an in-memory store with a custom clock for testing
func NewInMemStoreWithClock(now func() time.Time) *InMemStore {
	return &InMemStore{
		challenges: make(map[storeKey]Challenge),
		now:        now,
	}
}

// Put stores a challenge, overwriting any existing one for its key
func (s *InMemStore) Put(ctx context.Context, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[storeKey{channel: ch.Channel, identifier: ch.Identifier}] = ch
	return nil
}

// Get returns the challenge for the key after sweeping expired entries
func (s *InMemStore) Get(ctx context.Context, identifier string, channel Channel) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey{channel: channel, identifier: identifier}
	ch, ok := s.challenges[key]
	s.sweepLocked(s.now())
	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}
	if ch.Expired(s.now()) {
		return ch, ErrChallengeExpired
	}
	return ch, nil
}

// Remove deletes the challenge for the key
func (s *InMemStore) Remove(ctx context.Context, identifier string, channel Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, storeKey{channel: channel, identifier: identifier})
	return nil
}

// Sweep removes all challenges whose TTL has passed
func (s *InMemStore) Sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())
	return nil
}

func (s *InMemStore) sweepLocked(now time.Time) {
	for key, ch := range s.challenges {
		if ch.Expired(now) {
			delete(s.challenges, key)
		}
	}
}
