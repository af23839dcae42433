// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// presentation.go provides a Valkey-backed presentation cache (L2).
// When a listing's presentation is resolved, the result is stored in
// Valkey so other server instances skip the resolution work. Entries
// are keyed by listing, listing revision, and template identity, so a
// stale entry can never be served for updated content.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"listora/internal/models"
)

const (
	// presentationKeyPrefix is the Valkey key prefix for cached presentations.
	presentationKeyPrefix = "presentation:"

	// DefaultPresentationTTL is how long a resolved presentation stays cached.
	DefaultPresentationTTL = 10 * time.Minute
)

// PresentationCache manages resolved presentation caching in Valkey.
type PresentationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresentationCache creates a presentation cache backed by the given
// Valkey client (DefaultPresentationTTL if ttl is zero).
func NewPresentationCache(client *redis.Client, ttl time.Duration) *PresentationCache {
	if ttl == 0 {
		ttl = DefaultPresentationTTL
	}
	return &PresentationCache{client: client, ttl: ttl}
}

// PresentationKey builds the cache key for one listing/template pairing.
// The listing's updated_at and the template's version are part of the
// key, so edits produce new keys instead of requiring eager invalidation.
func PresentationKey(l *models.Listing, tmpl *models.CategoryTemplate) string {
	templateID, version := "", 0
	if tmpl != nil {
		templateID = tmpl.ID.String()
		version = tmpl.Version
	}
	return fmt.Sprintf("%s:%d:%s:%d", l.ID, l.UpdatedAt.UnixNano(), templateID, version)
}

// Get retrieves a cached presentation. Returns false on miss or on any
// Valkey/decode error, so callers always fall back to resolving.
func (pc *PresentationCache) Get(ctx context.Context, key string) (*models.ResolvedPresentation, bool) {
	val, err := pc.client.Get(ctx, presentationKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("presentation cache get error", "key", key, "error", err)
		return nil, false
	}

	var p models.ResolvedPresentation
	if err := json.Unmarshal(val, &p); err != nil {
		slog.Warn("presentation cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("presentation cache hit", "key", key)
	return &p, true
}

// Set stores a resolved presentation with the configured TTL.
func (pc *PresentationCache) Set(ctx context.Context, key string, p *models.ResolvedPresentation) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("presentation cache encode error", "key", key, "error", err)
		return
	}
	if err := pc.client.Set(ctx, presentationKeyPrefix+key, data, pc.ttl).Err(); err != nil {
		slog.Warn("presentation cache set error", "key", key, "error", err)
	}
}

// InvalidateListing removes every cached presentation for one listing,
// across all revisions and templates. Used when a listing is deleted.
func (pc *PresentationCache) InvalidateListing(ctx context.Context, listingID string) {
	pc.deleteByPattern(ctx, presentationKeyPrefix+listingID+":*")
}

// InvalidateAll removes all cached presentations by scanning for the
// prefix. Used when a template is activated, since any listing in the
// category could be affected.
func (pc *PresentationCache) InvalidateAll(ctx context.Context) {
	pc.deleteByPattern(ctx, presentationKeyPrefix+"*")
}

func (pc *PresentationCache) deleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("presentation cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("presentation cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("presentation cache cleared", "pattern", pattern, "deleted", deleted)
	}
}
