// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package entitlement decides, per listing and per viewer, whether
// premium content is visible. The decision is recomputed on every
// evaluation and fails closed: missing viewers, unloaded permission
// snapshots, and unknown categories all lock the listing.
package entitlement

import (
	"context"

	"github.com/google/uuid"

	"listora/internal/models"
)

// UnlockStore records which listings a viewer has already opened during
// the current session. Once marked, a listing stays open for the rest of
// the session regardless of later credit changes. The evaluator only
// reads the store; marking is an explicit side effect of a granted view,
// performed by the detail handler.
type UnlockStore interface {
	HasUnlocked(ctx context.Context, viewerID, listingID uuid.UUID) bool
	MarkUnlocked(ctx context.Context, viewerID, listingID uuid.UUID) error
}

// Request carries one access evaluation's inputs. Viewer is uuid.Nil for
// anonymous visitors; Permissions is nil while the entitlement snapshot
// is still loading; CategoryContext is the page-level category used when
// the listing does not name its own.
type Request struct {
	Listing         *models.Listing
	ViewerID        uuid.UUID
	Permissions     *models.Permissions
	CategoryContext string
}

// Evaluator computes lock decisions against a set of restricted
// categories (those gated by per-category view credits rather than the
// global premium flag).
type Evaluator struct {
	unlocks    UnlockStore
	restricted map[string]bool
}

// New creates an evaluator. restricted lists the credit-gated category
// slugs, typically jobs and tenders.
func New(unlocks UnlockStore, restricted []string) *Evaluator {
	set := make(map[string]bool, len(restricted))
	for _, slug := range restricted {
		set[slug] = true
	}
	return &Evaluator{unlocks: unlocks, restricted: set}
}

// Restricted reports whether a category is credit-gated. Callers use it
// to decide if a granted view should consume a credit.
func (e *Evaluator) Restricted(category string) bool {
	return e.restricted[category]
}

// Locked reports whether the listing's content must be hidden from the
// viewer. The checks run in a fixed order; the first conclusive one wins.
func (e *Evaluator) Locked(ctx context.Context, req Request) bool {
	l := req.Listing
	if l == nil {
		return true
	}

	// A session unlock overrides everything, including revoked credits.
	if req.ViewerID != uuid.Nil && e.unlocks != nil &&
		e.unlocks.HasUnlocked(ctx, req.ViewerID, l.ID) {
		return false
	}

	// Non-premium content is never gated.
	if !l.IsPremium {
		return false
	}

	// Anonymous viewers see no premium content.
	if req.ViewerID == uuid.Nil {
		return true
	}

	// Permissions not loaded yet: fail closed rather than flash content
	// that a slow entitlement fetch might retract.
	if req.Permissions == nil {
		return true
	}

	category := l.Category
	if category == "" {
		category = req.CategoryContext
	}

	if e.restricted[category] {
		return !req.Permissions.Credit(category).Sufficient()
	}

	// Non-restricted premium content is for premium viewers only.
	return !req.Permissions.IsPremium
}
