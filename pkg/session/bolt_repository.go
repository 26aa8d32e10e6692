package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	recordKey     = []byte("current")
)

// BoltRepository implements Repository on a local bbolt file, so the cached
// session survives process restarts.
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository opens (or creates) the session database at path
func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

// Close releases the underlying database
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func (r *BoltRepository) Load(ctx context.Context) (Record, error) {
	var rec Record
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(recordKey)
		if data == nil {
			return ErrNoSession
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *BoltRepository) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(recordKey, data)
	})
}

func (r *BoltRepository) Clear(ctx context.Context) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(recordKey)
	})
}
