// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"listora/internal/cache"
	"listora/internal/entitlement"
	"listora/internal/middleware"
	"listora/internal/models"
	"listora/internal/presentation"
	"listora/internal/storage"
	"listora/internal/store"
)

// presignTTL bounds how long a private attachment link stays usable.
const presignTTL = 15 * time.Minute

// Public groups the viewer-facing listing handlers and their dependencies.
type Public struct {
	listings    *store.ListingStore
	categories  *store.CategoryStore
	templates   *store.TemplateStore
	grants      *store.GrantStore
	attachments *store.AttachmentStore
	resolver    *presentation.Resolver
	presCache   *cache.PresentationCache
	evaluator   *entitlement.Evaluator
	unlocks     entitlement.UnlockStore
	storage     *storage.Client
}

// NewPublic creates the public handler group. presCache and storageClient
// may be nil; presentation falls back to the in-process memo and
// attachment links degrade to the proxy endpoint.
func NewPublic(listings *store.ListingStore, categories *store.CategoryStore, templates *store.TemplateStore, grants *store.GrantStore, attachments *store.AttachmentStore, resolver *presentation.Resolver, presCache *cache.PresentationCache, evaluator *entitlement.Evaluator, unlocks entitlement.UnlockStore, storageClient *storage.Client) *Public {
	return &Public{
		listings:    listings,
		categories:  categories,
		templates:   templates,
		grants:      grants,
		attachments: attachments,
		resolver:    resolver,
		presCache:   presCache,
		evaluator:   evaluator,
		unlocks:     unlocks,
		storage:     storageClient,
	}
}

// ListingCard is the redacted listing shape shown in result lists. It
// never carries custom fields or attachments, so no entitlement data can
// leak through it.
type ListingCard struct {
	ID           uuid.UUID                   `json:"id"`
	Title        string                      `json:"title"`
	Slug         string                      `json:"slug"`
	Price        float64                     `json:"price"`
	Location     string                      `json:"location"`
	Category     string                      `json:"category"`
	IsPremium    bool                        `json:"is_premium"`
	Locked       bool                        `json:"locked"`
	CreatedAt    time.Time                   `json:"created_at"`
	Presentation models.ResolvedPresentation `json:"presentation"`
}

// ListingDetail extends the card with the gated content. CustomFields and
// Attachments are only populated when the listing is unlocked for the
// requesting viewer.
type ListingDetail struct {
	ListingCard
	PremiumUntil *time.Time          `json:"premium_until,omitempty"`
	CustomFields models.CustomFields `json:"custom_fields,omitempty"`
	Attachments  []AttachmentInfo    `json:"attachments,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// AttachmentInfo is the serializable view of one attachment, with a URL
// the viewer can fetch it from.
type AttachmentInfo struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	IsImage      bool      `json:"is_image"`
	URL          string    `json:"url"`
}

// ListCategories returns all categories with their listing counts.
func (p *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := p.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// ListListings returns a page of listing cards, optionally filtered by
// category. Lock state is evaluated per listing for the current viewer,
// but cards are already redacted, so a locked card differs only in its
// flag.
func (p *Public) ListListings(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Category: r.URL.Query().Get("category"),
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		filter.Offset = v
	}

	listings, err := p.listings.List(filter)
	if err != nil {
		slog.Error("list listings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}

	viewerID, perms := p.viewerContext(r)

	// One template lookup per category on this page.
	templates := map[string]*models.CategoryTemplate{}
	cards := make([]ListingCard, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		tmpl, ok := templates[l.Category]
		if !ok {
			tmpl, err = p.templates.FindActiveByCategory(l.Category)
			if err != nil {
				slog.Error("load template failed", "category", l.Category, "error", err)
			}
			templates[l.Category] = tmpl
		}
		cards = append(cards, p.card(r, l, tmpl, viewerID, perms))
	}

	respondJSON(w, http.StatusOK, map[string]any{"listings": cards})
}

// GetListing returns one listing by slug. A granted first view of a
// premium listing in a credit-gated category consumes one credit and
// records a session unlock, so revisits within the session are free.
func (p *Public) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := p.listings.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}
	if l == nil {
		respondError(w, http.StatusNotFound, "listing not found")
		return
	}

	tmpl, err := p.templates.FindActiveByCategory(l.Category)
	if err != nil {
		slog.Error("load template failed", "category", l.Category, "error", err)
	}

	viewerID, perms := p.viewerContext(r)
	locked := p.evaluator.Locked(r.Context(), entitlement.Request{
		Listing:     l,
		ViewerID:    viewerID,
		Permissions: perms,
	})

	if !locked && l.IsPremium && viewerID != uuid.Nil &&
		!p.unlocks.HasUnlocked(r.Context(), viewerID, l.ID) {
		locked = !p.unlock(r, l, viewerID)
	}

	detail := ListingDetail{
		ListingCard: p.cardLocked(r, l, tmpl, locked),
		UpdatedAt:   l.UpdatedAt,
	}
	if locked {
		// A locked detail keeps only the teaser image.
		if len(detail.Presentation.Images) > 1 {
			detail.Presentation.Images = detail.Presentation.Images[:1]
		}
	} else {
		detail.PremiumUntil = l.PremiumUntil
		detail.CustomFields = l.CustomFields
		detail.Attachments = p.attachmentInfos(r, l)
	}

	respondJSON(w, http.StatusOK, detail)
}

// GetPresentation returns just the resolved presentation for a listing.
// Locked listings keep only the teaser image, matching the detail view;
// summary attributes stay card-level public data. Presentation views
// never consume credits.
func (p *Public) GetPresentation(w http.ResponseWriter, r *http.Request) {
	l, err := p.listings.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}
	if l == nil {
		respondError(w, http.StatusNotFound, "listing not found")
		return
	}

	tmpl, err := p.templates.FindActiveByCategory(l.Category)
	if err != nil {
		slog.Error("load template failed", "category", l.Category, "error", err)
	}

	viewerID, perms := p.viewerContext(r)
	locked := p.evaluator.Locked(r.Context(), entitlement.Request{
		Listing:     l,
		ViewerID:    viewerID,
		Permissions: perms,
	})

	pres := p.presentationFor(r, l, tmpl)
	if locked && len(pres.Images) > 1 {
		pres.Images = pres.Images[:1]
	}
	respondJSON(w, http.StatusOK, pres)
}

// GetAttachment redirects to the file behind an attachment: a direct
// public URL, or a short-lived presigned URL for private files. The
// owning listing must be unlocked for the viewer.
func (p *Public) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	att, err := p.attachments.FindByID(id)
	if err != nil {
		slog.Error("find attachment failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load attachment")
		return
	}
	if att == nil {
		respondError(w, http.StatusNotFound, "attachment not found")
		return
	}

	l, err := p.listings.FindByID(att.ListingID)
	if err != nil || l == nil {
		respondError(w, http.StatusNotFound, "attachment not found")
		return
	}

	viewerID, perms := p.viewerContext(r)
	if p.evaluator.Locked(r.Context(), entitlement.Request{
		Listing:     l,
		ViewerID:    viewerID,
		Permissions: perms,
	}) {
		respondError(w, http.StatusForbidden, "listing is locked")
		return
	}

	if p.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	if att.Private {
		url, err := p.storage.PresignedURL(r.Context(), att.Bucket, att.S3Key, presignTTL)
		if err != nil {
			slog.Error("presign failed", "attachment", att.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to sign attachment URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	http.Redirect(w, r, p.storage.FileURL(att.S3Key), http.StatusFound)
}

// --- helpers ---

// viewerContext loads the viewer's identity and entitlement snapshot.
// Anonymous requests get (uuid.Nil, nil); a failed permission load keeps
// perms nil so the evaluator fails closed.
func (p *Public) viewerContext(r *http.Request) (uuid.UUID, *models.Permissions) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return uuid.Nil, nil
	}
	perms, err := p.grants.PermissionsFor(sess.ViewerID)
	if err != nil {
		slog.Error("load permissions failed", "viewer", sess.ViewerID, "error", err)
		return sess.ViewerID, nil
	}
	return sess.ViewerID, perms
}

// unlock consumes a credit where the category requires one and records
// the session unlock. Returns false when the viewer lost the race for the
// last credit.
func (p *Public) unlock(r *http.Request, l *models.Listing, viewerID uuid.UUID) bool {
	if p.evaluator.Restricted(l.Category) {
		ok, err := p.grants.Consume(viewerID, l.Category)
		if err != nil {
			slog.Error("consume credit failed", "viewer", viewerID, "category", l.Category, "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	if err := p.unlocks.MarkUnlocked(r.Context(), viewerID, l.ID); err != nil {
		// The view was granted; a lost marker only means a revisit may
		// cost another credit.
		slog.Warn("mark unlock failed", "viewer", viewerID, "listing", l.ID, "error", err)
	}
	return true
}

// card builds the redacted card for one listing, evaluating its lock
// state for the viewer.
func (p *Public) card(r *http.Request, l *models.Listing, tmpl *models.CategoryTemplate, viewerID uuid.UUID, perms *models.Permissions) ListingCard {
	locked := p.evaluator.Locked(r.Context(), entitlement.Request{
		Listing:     l,
		ViewerID:    viewerID,
		Permissions: perms,
	})
	return p.cardLocked(r, l, tmpl, locked)
}

// cardLocked builds a card with a precomputed lock decision.
func (p *Public) cardLocked(r *http.Request, l *models.Listing, tmpl *models.CategoryTemplate, locked bool) ListingCard {
	return ListingCard{
		ID:           l.ID,
		Title:        l.Title,
		Slug:         l.Slug,
		Price:        l.Price,
		Location:     l.Location,
		Category:     l.Category,
		IsPremium:    l.IsPremium,
		Locked:       locked,
		CreatedAt:    l.CreatedAt,
		Presentation: p.presentationFor(r, l, tmpl),
	}
}

// presentationFor resolves a listing's presentation through the shared
// Valkey cache, falling back to (and repopulating from) the in-process
// resolver on a miss.
func (p *Public) presentationFor(r *http.Request, l *models.Listing, tmpl *models.CategoryTemplate) models.ResolvedPresentation {
	key := cache.PresentationKey(l, tmpl)
	if p.presCache != nil {
		if hit, ok := p.presCache.Get(r.Context(), key); ok {
			return *hit
		}
	}
	resolved := p.resolver.Resolve(l, tmpl)
	if p.presCache != nil {
		p.presCache.Set(r.Context(), key, &resolved)
	}
	return resolved
}

// attachmentInfos lists a listing's attachments with fetchable URLs.
func (p *Public) attachmentInfos(r *http.Request, l *models.Listing) []AttachmentInfo {
	atts, err := p.attachments.ListByListing(l.ID)
	if err != nil {
		slog.Error("list attachments failed", "listing", l.ID, "error", err)
		return nil
	}

	infos := make([]AttachmentInfo, 0, len(atts))
	for i := range atts {
		a := &atts[i]
		info := AttachmentInfo{
			ID:           a.ID,
			OriginalName: a.OriginalName,
			ContentType:  a.ContentType,
			SizeBytes:    a.SizeBytes,
			IsImage:      a.IsImage(),
			// The proxy endpoint re-checks entitlement and signs private
			// URLs at fetch time.
			URL: "/api/attachments/" + a.ID.String(),
		}
		if p.storage != nil && !a.Private {
			info.URL = p.storage.FileURL(a.S3Key)
		}
		infos = append(infos, info)
	}
	return infos
}
