// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tessera/internal/platform/constants"
)

// # Watermark Store (Redis)

// RedisWatermarkStore caches revocation watermarks so the access-token hot
// path avoids a database roundtrip. Entries expire after the refresh token
// lifetime: once every token minted before the watermark has itself expired,
// the cached value is worthless.
type RedisWatermarkStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisWatermarkStore creates a watermark cache with the given entry TTL,
// normally the refresh token lifetime.
func NewRedisWatermarkStore(client *redis.Client, ttl time.Duration) *RedisWatermarkStore {
	return &RedisWatermarkStore{client: client, ttl: ttl}
}

func watermarkKey(kind, principalID string) string {
	return constants.RedisPrefixWatermark + kind + ":" + principalID
}

/*
Get retrieves a cached revocation watermark.

Parameters:
  - context: context.Context
  - kind: string ("admin" or "user")
  - principalID: string (Principal UUID)

Returns:
  - float64: Watermark in fractional Unix seconds
  - bool: false on cache miss
  - error: Redis errors
*/
func (store *RedisWatermarkStore) Get(context context.Context, kind, principalID string) (float64, bool, error) {
	raw, err := store.client.Get(context, watermarkKey(kind, principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis_watermark_get_failed: %w", err)
	}

	watermark, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A corrupt entry is treated as a miss so the caller falls back to
		// the database.
		return 0, false, nil
	}

	return watermark, true, nil
}

/*
Set writes a revocation watermark through to the cache.

Parameters:
  - context: context.Context
  - kind: string ("admin" or "user")
  - principalID: string (Principal UUID)
  - watermark: float64 (Fractional Unix seconds)

Returns:
  - error: Redis errors
*/
func (store *RedisWatermarkStore) Set(context context.Context, kind, principalID string, watermark float64) error {
	value := strconv.FormatFloat(watermark, 'f', -1, 64)
	if err := store.client.Set(context, watermarkKey(kind, principalID), value, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_watermark_set_failed: %w", err)
	}
	return nil
}
