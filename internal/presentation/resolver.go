// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package presentation

import (
	"listora/internal/mediaurl"
	"listora/internal/models"
)

// Resolver turns a listing plus its (possibly absent) category template
// into a ResolvedPresentation. Resolution is pure and deterministic, so
// results are memoized in-process keyed by listing and template identity;
// any edit bumps updated_at or the template version and naturally misses
// the cache.
type Resolver struct {
	optimizer *mediaurl.Optimizer
	memo      *memoCache
}

// New creates a resolver. A nil optimizer disables CDN rewriting but
// resolution still works — raw URLs pass through.
func New(optimizer *mediaurl.Optimizer) *Resolver {
	return &Resolver{
		optimizer: optimizer,
		memo:      newMemoCache(),
	}
}

// Resolve derives the presentation for a listing under a template, which
// may be nil when the category has no active template yet. Calling it
// twice with the same inputs returns the identical, order-stable result.
func (r *Resolver) Resolve(l *models.Listing, tmpl *models.CategoryTemplate) models.ResolvedPresentation {
	key := memoKeyFor(l, tmpl)
	if cached, ok := r.memo.get(key); ok {
		return cached
	}

	fields := tmpl.Fields()
	resolved := models.ResolvedPresentation{
		Images:            r.optimizer.RewriteAll(CollectImages(l, fields)),
		SummaryAttributes: SelectSummary(l, fields),
	}

	r.memo.put(key, resolved)
	return resolved
}

// InvalidateListing evicts memoized presentations for one listing.
// Called after admin edits, since the write path may hold a stale
// updated_at on in-flight requests.
func (r *Resolver) InvalidateListing(listingID string) {
	r.memo.invalidateListing(listingID)
}

// InvalidateAll clears the memo. Template activation changes which
// template applies to a whole category, so everything may be affected.
func (r *Resolver) InvalidateAll() {
	r.memo.invalidateAll()
}
