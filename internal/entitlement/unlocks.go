// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// unlocks.go provides the Valkey-backed session unlock store. Unlock
// markers live in a per-viewer set with a session-length TTL, so they
// expire with the session and never persist across logins.
package entitlement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// unlockKeyPrefix namespaces unlock sets in Valkey.
	unlockKeyPrefix = "unlocks:"

	// DefaultUnlockTTL matches the session lifetime: markers must not
	// outlive the session that earned them.
	DefaultUnlockTTL = 24 * time.Hour
)

// ValkeyUnlockStore keeps session unlock markers in Valkey.
type ValkeyUnlockStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkeyUnlockStore creates an unlock store with the given TTL
// (DefaultUnlockTTL if zero).
func NewValkeyUnlockStore(client *redis.Client, ttl time.Duration) *ValkeyUnlockStore {
	if ttl == 0 {
		ttl = DefaultUnlockTTL
	}
	return &ValkeyUnlockStore{client: client, ttl: ttl}
}

// HasUnlocked reports whether the viewer already opened the listing this
// session. Valkey errors degrade to "not unlocked" — the evaluator will
// fall through to the credit checks instead of failing open.
func (s *ValkeyUnlockStore) HasUnlocked(ctx context.Context, viewerID, listingID uuid.UUID) bool {
	ok, err := s.client.SIsMember(ctx, unlockKeyPrefix+viewerID.String(), listingID.String()).Result()
	if err != nil && err != redis.Nil {
		slog.Warn("unlock store read error", "viewer", viewerID, "error", err)
		return false
	}
	return ok
}

// MarkUnlocked records the listing in the viewer's unlock set and
// refreshes the set's TTL.
func (s *ValkeyUnlockStore) MarkUnlocked(ctx context.Context, viewerID, listingID uuid.UUID) error {
	key := unlockKeyPrefix + viewerID.String()
	if err := s.client.SAdd(ctx, key, listingID.String()).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// Clear drops a viewer's unlock set. Called on logout so a fresh session
// starts without inherited unlocks.
func (s *ValkeyUnlockStore) Clear(ctx context.Context, viewerID uuid.UUID) {
	if err := s.client.Del(ctx, unlockKeyPrefix+viewerID.String()).Err(); err != nil {
		slog.Warn("unlock store clear error", "viewer", viewerID, "error", err)
	}
}

// MemoryUnlockStore is an in-process UnlockStore for tests and for
// running without Valkey.
type MemoryUnlockStore struct {
	mu   sync.RWMutex
	seen map[[2]uuid.UUID]bool
}

// NewMemoryUnlockStore creates an empty in-memory unlock store.
func NewMemoryUnlockStore() *MemoryUnlockStore {
	return &MemoryUnlockStore{seen: make(map[[2]uuid.UUID]bool)}
}

// HasUnlocked reports whether the pair was marked.
func (s *MemoryUnlockStore) HasUnlocked(_ context.Context, viewerID, listingID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[[2]uuid.UUID{viewerID, listingID}]
}

// MarkUnlocked records the pair.
func (s *MemoryUnlockStore) MarkUnlocked(_ context.Context, viewerID, listingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[[2]uuid.UUID{viewerID, listingID}] = true
	return nil
}
