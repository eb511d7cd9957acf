package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSlugTTL bounds how long a slug mapping is kept.
const DefaultSlugTTL = time.Hour

// SlugCache implements usecase.SlugCache using Redis.
type SlugCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSlugCache creates a new SlugCache. A non-positive ttl selects
// DefaultSlugTTL.
func NewSlugCache(client *redis.Client, ttl time.Duration) *SlugCache {
	if ttl <= 0 {
		ttl = DefaultSlugTTL
	}

	return &SlugCache{
		client: client,
		prefix: "slug:",
		ttl:    ttl,
	}
}

// Get returns the account id cached for slug.
func (c *SlugCache) Get(ctx context.Context, slug string) (string, bool, error) {
	id, err := c.client.Get(ctx, c.prefix+slug).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return id, true, nil
}

// Set caches the account id for slug.
func (c *SlugCache) Set(ctx context.Context, slug, id string) error {
	return c.client.Set(ctx, c.prefix+slug, id, c.ttl).Err()
}

// Delete removes the mapping for slug.
func (c *SlugCache) Delete(ctx context.Context, slug string) error {
	return c.client.Del(ctx, c.prefix+slug).Err()
}
