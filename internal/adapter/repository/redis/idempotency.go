package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// inFlight marks a reserved key whose response is not stored yet.
const inFlight = "processing"

// IdempotencyStore keeps HTTP responses by idempotency key.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// Reserve claims key for the caller. It reports false when the key is
// already reserved or holds a stored response.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, inFlight, ttl).Result()
}

// Load returns the response stored under key. found is true with a nil
// response while the original request is still running.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (response []byte, found bool, err error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	if string(val) == inFlight {
		return nil, true, nil
	}

	return val, true, nil
}

// Store saves the final response under key.
func (s *IdempotencyStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
