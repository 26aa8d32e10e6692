package session

import (
	"context"
	"sync"
)

// InMemRepository implements Repository using in-memory storage
type InMemRepository struct {
	mu     sync.RWMutex
	record *Record
}

// NewInMemRepository creates a new in-memory session repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{}
}

func (r *InMemRepository) Load(ctx context.Context) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.record == nil {
		return Record{}, ErrNoSession
	}
	return *r.record, nil
}

func (r *InMemRepository) Save(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record = &rec
	return nil
}

func (r *InMemRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record = nil
	return nil
}
