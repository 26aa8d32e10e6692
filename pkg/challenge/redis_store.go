package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix = "vc"

	// expiredRetention keeps an expired record around after its logical
	// expiry so a late check can be reported as expired instead of absent.
	expiredRetention = 30 * time.Minute
)

// RedisStore implements Store backed by Redis, for deployments where more
// than one process serves verification traffic. The record carries its own
// expiry; the Redis key TTL is only a backstop that garbage-collects records
// once they are too old to be worth reporting as expired.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a new Redis-backed challenge store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: challengeKeyPrefix,
		now:    time.Now,
	}
}

// NewRedisStoreWithClock creates a Redis-backed store with a custom clock for testing
func NewRedisStoreWithClock(client *redis.Client, now func() time.Time) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: challengeKeyPrefix,
		now:    now,
	}
}

func (s *RedisStore) key(identifier string, channel Channel) string {
	return s.prefix + ":" + string(channel) + ":" + identifier
}

// Put stores a challenge, overwriting any existing one for its key
func (s *RedisStore) Put(ctx context.Context, ch Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	ttl := ch.ExpiresAt.Sub(s.now()) + expiredRetention
	if ttl <= 0 {
		ttl = expiredRetention
	}

	err = s.client.Set(ctx, s.key(ch.Identifier, ch.Channel), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the challenge for the key. An expired record is removed and
// returned together with ErrChallengeExpired.
func (s *RedisStore) Get(ctx context.Context, identifier string, channel Channel) (Challenge, error) {
	data, err := s.client.Get(ctx, s.key(identifier, channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Challenge{}, ErrChallengeNotFound
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var ch Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return Challenge{}, fmt.Errorf("failed to decode challenge: %w", err)
	}

	if ch.Expired(s.now()) {
		// Lazy sweep of the requested key. A failed delete is harmless: the
		// backstop TTL removes the record eventually.
		s.client.Del(ctx, s.key(identifier, channel))
		return ch, ErrChallengeExpired
	}

	return ch, nil
}

// Remove deletes the challenge for the key
func (s *RedisStore) Remove(ctx context.Context, identifier string, channel Channel) error {
	err := s.client.Del(ctx, s.key(identifier, channel)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Sweep removes all challenges whose TTL has passed
func (s *RedisStore) Sweep(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		var ch Challenge
		if err := json.Unmarshal(data, &ch); err != nil {
			// Unreadable record, drop it
			s.client.Del(ctx, key)
			continue
		}
		if ch.Expired(s.now()) {
			s.client.Del(ctx, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
