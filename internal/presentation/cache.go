// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go provides the in-memory memoization layer for resolved
// presentations. This is the L1 cache — it avoids re-walking the image
// cascade and summary filters on every request. Entries are keyed by
// listing identity (id + updated_at) and template identity (id +
// version), so any edit automatically produces a cache miss.
package presentation

import (
	"log/slog"
	"sync"

	"listora/internal/models"
)

// memoKey uniquely identifies one (listing, template) resolution input.
type memoKey struct {
	listingID      string
	listingUpdated int64 // unix nanoseconds of updated_at
	templateID     string
	templateVer    int
}

// memoKeyFor builds the key; a nil template contributes zero identity,
// which is distinct from every real template version.
func memoKeyFor(l *models.Listing, tmpl *models.CategoryTemplate) memoKey {
	key := memoKey{
		listingID:      l.ID.String(),
		listingUpdated: l.UpdatedAt.UnixNano(),
	}
	if tmpl != nil {
		key.templateID = tmpl.ID.String()
		key.templateVer = tmpl.Version
	}
	return key
}

// memoCache is a concurrency-safe in-memory cache of resolved
// presentations.
type memoCache struct {
	mu      sync.RWMutex
	entries map[memoKey]models.ResolvedPresentation
}

func newMemoCache() *memoCache {
	return &memoCache{
		entries: make(map[memoKey]models.ResolvedPresentation),
	}
}

func (c *memoCache) get(key memoKey) (models.ResolvedPresentation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[key]
	return p, ok
}

func (c *memoCache) put(key memoKey, p models.ResolvedPresentation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = p
	slog.Debug("presentation memoized", "listing", key.listingID, "size", len(c.entries))
}

// invalidateListing removes all memoized entries for a listing ID.
func (c *memoCache) invalidateListing(listingID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.listingID == listingID {
			delete(c.entries, k)
		}
	}
	slog.Debug("presentation memo invalidated", "listing", listingID)
}

// invalidateAll clears the entire memo.
func (c *memoCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[memoKey]models.ResolvedPresentation)
	slog.Debug("presentation memo fully cleared")
}
