// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// render.go provides a Valkey-backed cache of rendered documents (L2).
// A rendered document depends on the template version and on the data
// context, so both are part of the key. Updating a template bumps its
// version, which makes old entries unreachable; InvalidateTemplate also
// removes them eagerly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// renderKeyPrefix is the Valkey key prefix for rendered documents.
	renderKeyPrefix = "render:"

	// DefaultRenderTTL is how long a rendered document stays cached.
	DefaultRenderTTL = 5 * time.Minute
)

// RenderCache manages rendered-document caching in Valkey.
type RenderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRenderCache creates a new render cache backed by the given Valkey client.
func NewRenderCache(client *redis.Client, ttl time.Duration) *RenderCache {
	if ttl == 0 {
		ttl = DefaultRenderTTL
	}
	return &RenderCache{client: client, ttl: ttl}
}

// RenderKey returns the cache key for a template version merged with a
// data context. data is hashed through its JSON encoding, so equal
// contexts share an entry.
func RenderKey(templateID string, version int, data any) string {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(data); err != nil {
		// Unencodable contexts never collide with real ones.
		h.Write([]byte(err.Error()))
	}
	return fmt.Sprintf("%s:v%d:%s", templateID, version, hex.EncodeToString(h.Sum(nil))[:32])
}

// Get retrieves a rendered document. Returns false on miss.
func (rc *RenderCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, renderKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("render cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("render cache hit", "key", key)
	return val, true
}

// Set stores a rendered document with the configured TTL.
func (rc *RenderCache) Set(ctx context.Context, key string, html []byte) {
	if err := rc.client.Set(ctx, renderKeyPrefix+key, html, rc.ttl).Err(); err != nil {
		slog.Warn("render cache set error", "key", key, "error", err)
	}
}

// InvalidateTemplate removes every cached rendering of a template.
func (rc *RenderCache) InvalidateTemplate(ctx context.Context, templateID string) {
	deleted := rc.deleteMatching(ctx, renderKeyPrefix+templateID+":*")
	slog.Debug("render cache invalidated", "template", templateID, "deleted", deleted)
}

// InvalidateAll removes all cached renderings by scanning for the prefix.
func (rc *RenderCache) InvalidateAll(ctx context.Context) {
	if deleted := rc.deleteMatching(ctx, renderKeyPrefix+"*"); deleted > 0 {
		slog.Info("render cache fully cleared", "deleted", deleted)
	}
}

func (rc *RenderCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("render cache scan error", "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("render cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			return deleted
		}
	}
}
