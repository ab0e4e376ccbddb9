// Package cache keeps short-lived capacity snapshots in redis for the
// read-heavy capacity endpoint.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

// setIfGeneration writes the snapshot only while the generation counter
// still holds the value the caller read before going to the ledger.
const setIfGeneration = `
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`

func capacityKey(eventID uuid.UUID) string {
	return fmt.Sprintf("capacity:%s", eventID.String())
}

func generationKey(eventID uuid.UUID) string {
	return fmt.Sprintf("capacity:gen:%s", eventID.String())
}

type RedisCapacityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCapacityCache(client redis.Cmdable, ttl time.Duration) *RedisCapacityCache {
	return &RedisCapacityCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RedisCapacityCache) Get(ctx context.Context, eventID uuid.UUID) (*domain.Capacity, error) {
	raw, err := c.client.Get(ctx, capacityKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get capacity: %w", err)
	}

	var snapshot domain.Capacity
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode capacity: %w", err)
	}
	return &snapshot, nil
}

// Generation is 0 until the first invalidation.
func (c *RedisCapacityCache) Generation(ctx context.Context, eventID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get capacity generation: %w", err)
	}
	return gen, nil
}

// Set reports false when the snapshot was dropped as stale.
func (c *RedisCapacityCache) Set(ctx context.Context, snapshot domain.Capacity, generation int64) (bool, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("encode capacity: %w", err)
	}

	stored, err := c.client.Eval(ctx, setIfGeneration,
		[]string{generationKey(snapshot.EventID), capacityKey(snapshot.EventID)},
		strconv.FormatInt(generation, 10), string(raw), strconv.FormatInt(c.ttl.Milliseconds(), 10),
	).Int()
	if err != nil {
		return false, fmt.Errorf("set capacity: %w", err)
	}
	return stored == 1, nil
}

// Invalidate bumps the generation before it drops the snapshot.
func (c *RedisCapacityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	if err := c.client.Incr(ctx, generationKey(eventID)).Err(); err != nil {
		return fmt.Errorf("bump capacity generation: %w", err)
	}
	if err := c.client.Del(ctx, capacityKey(eventID)).Err(); err != nil {
		return fmt.Errorf("invalidate capacity: %w", err)
	}
	return nil
}

// Noop is used when redis is not configured. Every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (*domain.Capacity, error)  { return nil, nil }
func (Noop) Generation(context.Context, uuid.UUID) (int64, error)      { return 0, nil }
func (Noop) Set(context.Context, domain.Capacity, int64) (bool, error) { return false, nil }
func (Noop) Invalidate(context.Context, uuid.UUID) error               { return nil }
