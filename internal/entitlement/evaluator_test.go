package entitlement

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"listora/internal/models"
)

var restrictedCategories = []string{"jobs", "tenders"}

func premiumListing(category string) *models.Listing {
	return &models.Listing{ID: uuid.New(), Category: category, IsPremium: true}
}

// TestLockTruthTable walks the concrete decision cases end to end.
func TestLockTruthTable(t *testing.T) {
	ctx := context.Background()
	viewer := uuid.New()

	tests := []struct {
		name       string
		listing    *models.Listing
		viewerID   uuid.UUID
		perms      *models.Permissions
		preUnlock  bool
		wantLocked bool
	}{
		{
			name:       "non-premium unlocked for anonymous",
			listing:    &models.Listing{ID: uuid.New(), Category: "jobs", IsPremium: false},
			viewerID:   uuid.Nil,
			wantLocked: false,
		},
		{
			name:       "restricted category with credits",
			listing:    premiumListing("jobs"),
			viewerID:   viewer,
			perms:      &models.Permissions{CanView: map[string]models.CreditValue{"jobs": 2}},
			wantLocked: false,
		},
		{
			name:       "restricted category with zero credits",
			listing:    premiumListing("jobs"),
			viewerID:   viewer,
			perms:      &models.Permissions{CanView: map[string]models.CreditValue{"jobs": 0}},
			wantLocked: true,
		},
		{
			name:       "restricted category unlimited legacy grant",
			listing:    premiumListing("tenders"),
			viewerID:   viewer,
			perms:      &models.Permissions{CanView: map[string]models.CreditValue{"tenders": models.CreditUnlimited}},
			wantLocked: false,
		},
		{
			name:       "non-restricted premium without premium viewer",
			listing:    premiumListing("homes"),
			viewerID:   viewer,
			perms:      &models.Permissions{IsPremium: false},
			wantLocked: true,
		},
		{
			name:       "non-restricted premium with premium viewer",
			listing:    premiumListing("homes"),
			viewerID:   viewer,
			perms:      &models.Permissions{IsPremium: true},
			wantLocked: false,
		},
		{
			name:       "session unlock overrides revoked credits",
			listing:    premiumListing("jobs"),
			viewerID:   viewer,
			perms:      &models.Permissions{CanView: map[string]models.CreditValue{"jobs": 0}},
			preUnlock:  true,
			wantLocked: false,
		},
		{
			name:       "anonymous viewer on premium",
			listing:    premiumListing("cars"),
			viewerID:   uuid.Nil,
			wantLocked: true,
		},
		{
			name:       "permissions pending fails closed",
			listing:    premiumListing("jobs"),
			viewerID:   viewer,
			perms:      nil,
			wantLocked: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			unlocks := NewMemoryUnlockStore()
			if tc.preUnlock {
				unlocks.MarkUnlocked(ctx, tc.viewerID, tc.listing.ID)
			}
			e := New(unlocks, restrictedCategories)

			got := e.Locked(ctx, Request{
				Listing:     tc.listing,
				ViewerID:    tc.viewerID,
				Permissions: tc.perms,
			})
			if got != tc.wantLocked {
				t.Errorf("Locked = %v, want %v", got, tc.wantLocked)
			}
		})
	}
}

// TestLockedCategoryContextFallback uses the page-level category when the
// listing does not carry its own slug.
func TestLockedCategoryContextFallback(t *testing.T) {
	ctx := context.Background()
	viewer := uuid.New()
	l := &models.Listing{ID: uuid.New(), IsPremium: true} // no category

	e := New(NewMemoryUnlockStore(), restrictedCategories)
	perms := &models.Permissions{CanView: map[string]models.CreditValue{"jobs": 1}}

	if e.Locked(ctx, Request{Listing: l, ViewerID: viewer, Permissions: perms, CategoryContext: "jobs"}) {
		t.Error("jobs context with credit should unlock")
	}
	if !e.Locked(ctx, Request{Listing: l, ViewerID: viewer, Permissions: perms, CategoryContext: "homes"}) {
		t.Error("homes context without premium flag should lock")
	}
}

// TestLockedNilListing fails closed.
func TestLockedNilListing(t *testing.T) {
	e := New(NewMemoryUnlockStore(), restrictedCategories)
	if !e.Locked(context.Background(), Request{ViewerID: uuid.New()}) {
		t.Error("nil listing must lock")
	}
}

// TestLockedDecisionNotCached: the evaluator reflects permission changes
// immediately when no session unlock exists.
func TestLockedDecisionNotCached(t *testing.T) {
	ctx := context.Background()
	viewer := uuid.New()
	l := premiumListing("jobs")
	e := New(NewMemoryUnlockStore(), restrictedCategories)

	perms := &models.Permissions{CanView: map[string]models.CreditValue{"jobs": 1}}
	if e.Locked(ctx, Request{Listing: l, ViewerID: viewer, Permissions: perms}) {
		t.Fatal("expected unlocked with credit")
	}

	perms.CanView["jobs"] = 0
	if !e.Locked(ctx, Request{Listing: l, ViewerID: viewer, Permissions: perms}) {
		t.Error("expected locked after credits dropped to zero")
	}
}

// TestMemoryUnlockStore covers the in-memory store contract.
func TestMemoryUnlockStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUnlockStore()
	viewer, listing := uuid.New(), uuid.New()

	if s.HasUnlocked(ctx, viewer, listing) {
		t.Error("fresh store should have no unlocks")
	}
	if err := s.MarkUnlocked(ctx, viewer, listing); err != nil {
		t.Fatalf("MarkUnlocked: %v", err)
	}
	if !s.HasUnlocked(ctx, viewer, listing) {
		t.Error("marked pair not found")
	}
	if s.HasUnlocked(ctx, viewer, uuid.New()) {
		t.Error("different listing should not be unlocked")
	}
	if s.HasUnlocked(ctx, uuid.New(), listing) {
		t.Error("different viewer should not be unlocked")
	}
}
