// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// layout.go provides a Valkey-backed cache for computed layouts.
// A layout is keyed by the owning user and a hash of the request that
// produced it, so any category or note mutation can drop every layout of
// that user with a single prefix scan.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// layoutKeyPrefix is the Valkey key prefix for cached layouts.
	layoutKeyPrefix = "layout:"

	// DefaultLayoutTTL is how long a computed layout stays cached.
	DefaultLayoutTTL = 10 * time.Minute
)

// LayoutCache manages layout JSON caching in Valkey.
type LayoutCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLayoutCache creates a new layout cache backed by the given Valkey client.
func NewLayoutCache(client *redis.Client, ttl time.Duration) *LayoutCache {
	if ttl == 0 {
		ttl = DefaultLayoutTTL
	}
	return &LayoutCache{client: client, ttl: ttl}
}

// RequestKey hashes a canonical request encoding into a fixed-size key.
func RequestKey(request []byte) string {
	sum := sha256.Sum256(request)
	return hex.EncodeToString(sum[:])
}

func userPrefix(userID uuid.UUID) string {
	return layoutKeyPrefix + userID.String() + ":"
}

// Get retrieves a cached layout. Returns false on a miss or on error.
func (lc *LayoutCache) Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, bool) {
	val, err := lc.client.Get(ctx, userPrefix(userID)+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("layout cache get error", "user_id", userID, "error", err)
		return nil, false
	}
	slog.Debug("layout cache hit", "user_id", userID, "key", key)
	return val, true
}

// Set stores a layout with the configured TTL.
func (lc *LayoutCache) Set(ctx context.Context, userID uuid.UUID, key string, data []byte) {
	if err := lc.client.Set(ctx, userPrefix(userID)+key, data, lc.ttl).Err(); err != nil {
		slog.Warn("layout cache set error", "user_id", userID, "error", err)
	}
}

// InvalidateUser removes every cached layout owned by a user.
func (lc *LayoutCache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if n := lc.deleteMatching(ctx, userPrefix(userID)+"*"); n > 0 {
		slog.Debug("layout cache invalidated", "user_id", userID, "deleted", n)
	}
}

// InvalidateAll removes all cached layouts. Used when sizing weights
// change, since every size could be affected.
func (lc *LayoutCache) InvalidateAll(ctx context.Context) {
	if n := lc.deleteMatching(ctx, layoutKeyPrefix+"*"); n > 0 {
		slog.Info("layout cache fully cleared", "deleted", n)
	}
}

func (lc *LayoutCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("layout cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("layout cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			return deleted
		}
	}
}
