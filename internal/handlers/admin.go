// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Listora API.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"listora/internal/cache"
	"listora/internal/middleware"
	"listora/internal/models"
	"listora/internal/presentation"
	"listora/internal/slug"
	"listora/internal/storage"
	"listora/internal/store"
)

// maxUploadSize caps attachment uploads at 20 MiB.
const maxUploadSize = 20 << 20

// Admin groups the management API handlers and their dependencies.
type Admin struct {
	users       *store.UserStore
	listings    *store.ListingStore
	categories  *store.CategoryStore
	templates   *store.TemplateStore
	grants      *store.GrantStore
	attachments *store.AttachmentStore
	resolver    *presentation.Resolver
	presCache   *cache.PresentationCache
	storage     *storage.Client
}

// NewAdmin creates the admin handler group. presCache and storageClient
// may be nil if Valkey or S3 is not configured.
func NewAdmin(users *store.UserStore, listings *store.ListingStore, categories *store.CategoryStore, templates *store.TemplateStore, grants *store.GrantStore, attachments *store.AttachmentStore, resolver *presentation.Resolver, presCache *cache.PresentationCache, storageClient *storage.Client) *Admin {
	return &Admin{
		users:       users,
		listings:    listings,
		categories:  categories,
		templates:   templates,
		grants:      grants,
		attachments: attachments,
		resolver:    resolver,
		presCache:   presCache,
		storage:     storageClient,
	}
}

// Dashboard returns platform stats for the admin landing view.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List()
	if err != nil {
		slog.Error("dashboard categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	listingCount := 0
	for _, c := range cats {
		listingCount += c.ListingCount
	}
	templateCount, _ := a.templates.Count()
	users, _ := a.users.List()

	respondJSON(w, http.StatusOK, map[string]any{
		"listing_count":  listingCount,
		"template_count": templateCount,
		"user_count":     len(users),
		"categories":     cats,
	})
}

// --- Templates ---

// templateRequest is the create/update payload for a category template.
type templateRequest struct {
	Category string                `json:"category,omitempty"`
	Name     string                `json:"name"`
	Steps    []models.TemplateStep `json:"steps"`
}

// TemplatesList returns every template, active and draft.
func (a *Admin) TemplatesList(w http.ResponseWriter, r *http.Request) {
	templates, err := a.templates.List()
	if err != nil {
		slog.Error("list templates failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// TemplateGet returns one template by ID.
func (a *Admin) TemplateGet(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := a.findTemplate(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, tmpl)
}

// TemplateCreate creates a new draft template for a category.
func (a *Admin) TemplateCreate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateTemplate(req.Name, req.Category, req.Steps); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := a.categories.FindBySlug(req.Category)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	if cat == nil {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}

	created, err := a.templates.Create(&models.CategoryTemplate{
		Category: req.Category,
		Name:     strings.TrimSpace(req.Name),
		Steps:    req.Steps,
	})
	if err != nil {
		slog.Error("create template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create template")
		return
	}

	slog.Info("template created", "template", created.ID, "category", created.Category)
	respondJSON(w, http.StatusCreated, created)
}

// TemplateUpdate replaces a template's name and steps. The store bumps
// the version, so presentation caches keyed by it miss naturally.
func (a *Admin) TemplateUpdate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := a.findTemplate(w, r)
	if !ok {
		return
	}

	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateTemplate(req.Name, tmpl.Category, req.Steps); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	tmpl.Name = strings.TrimSpace(req.Name)
	tmpl.Steps = req.Steps
	if err := a.templates.Update(tmpl); err != nil {
		slog.Error("update template failed", "template", tmpl.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update template")
		return
	}

	slog.Info("template updated", "template", tmpl.ID, "version", tmpl.Version)
	respondJSON(w, http.StatusOK, tmpl)
}

// TemplateActivate makes a template the active one for its category and
// flushes every derived presentation, since the whole category now
// renders differently.
func (a *Admin) TemplateActivate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := a.findTemplate(w, r)
	if !ok {
		return
	}

	if err := a.templates.Activate(tmpl.ID); err != nil {
		slog.Error("activate template failed", "template", tmpl.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to activate template")
		return
	}

	a.resolver.InvalidateAll()
	if a.presCache != nil {
		a.presCache.InvalidateAll(r.Context())
	}

	slog.Info("template activated", "template", tmpl.ID, "category", tmpl.Category)
	respondJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// TemplateDelete removes a draft template. The store refuses to delete
// the active one.
func (a *Admin) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := a.findTemplate(w, r)
	if !ok {
		return
	}

	if err := a.templates.Delete(tmpl.ID); err != nil {
		respondError(w, http.StatusConflict, "cannot delete the active template")
		return
	}

	slog.Info("template deleted", "template", tmpl.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Listings ---

// listingRequest is the create/update payload for a listing.
type listingRequest struct {
	Title        string              `json:"title"`
	Price        float64             `json:"price"`
	Location     string              `json:"location"`
	Category     string              `json:"category"`
	IsPremium    bool                `json:"is_premium"`
	PremiumUntil *time.Time          `json:"premium_until"`
	CustomFields models.CustomFields `json:"custom_fields"`
}

// ListingsList returns listings unredacted, including custom fields.
func (a *Admin) ListingsList(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{Category: r.URL.Query().Get("category")}
	listings, err := a.listings.List(filter)
	if err != nil {
		slog.Error("list listings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"listings": listings})
}

// ListingCreate creates a listing with a slug derived from the title.
func (a *Admin) ListingCreate(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateListing(req.Title, req.Category, req.Location, req.Price); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := a.categories.FindBySlug(req.Category)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}
	if cat == nil {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}

	listingSlug, err := a.uniqueSlug(req.Title)
	if err != nil {
		slog.Error("slug generation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	var ownerID uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		ownerID = sess.ViewerID
	}

	created, err := a.listings.Create(&models.Listing{
		Title:        strings.TrimSpace(req.Title),
		Slug:         listingSlug,
		Price:        req.Price,
		Location:     req.Location,
		Category:     req.Category,
		IsPremium:    req.IsPremium,
		PremiumUntil: req.PremiumUntil,
		CustomFields: req.CustomFields,
		OwnerID:      ownerID,
	})
	if err != nil {
		slog.Error("create listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	slog.Info("listing created", "listing", created.ID, "slug", created.Slug)
	respondJSON(w, http.StatusCreated, created)
}

// ListingUpdate edits a listing and evicts its derived presentations.
// The slug is stable across edits so shared links keep working.
func (a *Admin) ListingUpdate(w http.ResponseWriter, r *http.Request) {
	l, ok := a.findListing(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := req.Category
	if category == "" {
		category = l.Category
	}
	if msg := validateListing(req.Title, category, req.Location, req.Price); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	l.Title = strings.TrimSpace(req.Title)
	l.Price = req.Price
	l.Location = req.Location
	l.Category = category
	l.IsPremium = req.IsPremium
	l.PremiumUntil = req.PremiumUntil
	l.CustomFields = req.CustomFields

	if err := a.listings.Update(l); err != nil {
		slog.Error("update listing failed", "listing", l.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update listing")
		return
	}

	a.invalidateListing(r, l.ID)

	slog.Info("listing updated", "listing", l.ID)
	respondJSON(w, http.StatusOK, l)
}

// ListingDelete removes a listing, its stored attachment files, and its
// cached presentations. Attachment rows cascade with the listing.
func (a *Admin) ListingDelete(w http.ResponseWriter, r *http.Request) {
	l, ok := a.findListing(w, r)
	if !ok {
		return
	}

	if a.storage != nil {
		atts, err := a.attachments.ListByListing(l.ID)
		if err != nil {
			slog.Error("list attachments failed", "listing", l.ID, "error", err)
		}
		for _, att := range atts {
			if err := a.storage.Delete(r.Context(), att.Bucket, att.S3Key); err != nil {
				slog.Warn("attachment file delete failed", "attachment", att.ID, "error", err)
			}
		}

		// Images uploaded through the platform and referenced from custom
		// fields live in the public bucket; drop those objects too.
		for _, img := range presentation.CollectImages(l, nil) {
			if key, ok := a.storage.ExtractS3Key(img); ok {
				if err := a.storage.Delete(r.Context(), a.storage.PublicBucket(), key); err != nil {
					slog.Warn("custom field image delete failed", "listing", l.ID, "key", key, "error", err)
				}
			}
		}
	}

	if err := a.listings.Delete(l.ID); err != nil {
		slog.Error("delete listing failed", "listing", l.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete listing")
		return
	}

	a.invalidateListing(r, l.ID)

	slog.Info("listing deleted", "listing", l.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Attachments ---

// AttachmentUpload stores an uploaded file in S3 and records it against
// the listing. Files on premium listings default to the private bucket;
// the "private" form field overrides.
func (a *Admin) AttachmentUpload(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	l, ok := a.findListing(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	private := l.IsPremium
	if v := r.FormValue("private"); v != "" {
		private = v == "true" || v == "1"
	}

	bucket := a.storage.PublicBucket()
	if private {
		bucket = a.storage.PrivateBucket()
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("attachments/%s/%s", l.ID, filename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = detectContentType(file)
	}

	if err := a.storage.Upload(r.Context(), bucket, key, contentType, file, header.Size); err != nil {
		slog.Error("attachment upload failed", "listing", l.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	var uploaderID uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		uploaderID = sess.ViewerID
	}

	created, err := a.attachments.Create(&models.Attachment{
		ListingID:    l.ID,
		Filename:     filename,
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    header.Size,
		Bucket:       bucket,
		S3Key:        key,
		Private:      private,
		UploaderID:   uploaderID,
	})
	if err != nil {
		// Orphaned object; remove it so the bucket does not accumulate
		// files no row points at.
		a.storage.Delete(r.Context(), bucket, key)
		slog.Error("attachment record failed", "listing", l.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	a.invalidateListing(r, l.ID)

	slog.Info("attachment uploaded", "attachment", created.ID, "listing", l.ID, "private", private)
	respondJSON(w, http.StatusCreated, created)
}

// AttachmentDelete removes an attachment's file and record.
func (a *Admin) AttachmentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	att, err := a.attachments.FindByID(id)
	if err != nil {
		slog.Error("find attachment failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load attachment")
		return
	}
	if att == nil {
		respondError(w, http.StatusNotFound, "attachment not found")
		return
	}

	if a.storage != nil {
		if err := a.storage.Delete(r.Context(), att.Bucket, att.S3Key); err != nil {
			slog.Warn("attachment file delete failed", "attachment", att.ID, "error", err)
		}
	}

	if err := a.attachments.Delete(att.ID); err != nil {
		slog.Error("delete attachment failed", "attachment", att.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete attachment")
		return
	}

	a.invalidateListing(r, att.ListingID)

	slog.Info("attachment deleted", "attachment", att.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Users and grants ---

// UsersList returns all accounts.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// UserSetPremium toggles an account's premium subscription flag.
func (a *Admin) UserSetPremium(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		IsPremium bool `json:"is_premium"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.users.SetPremium(userID, req.IsPremium); err != nil {
		slog.Error("set premium failed", "user", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	slog.Info("user premium changed", "user", userID, "premium", req.IsPremium)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// GrantsList returns a viewer's per-category credit grants.
func (a *Admin) GrantsList(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	grants, err := a.grants.ListByViewer(userID)
	if err != nil {
		slog.Error("list grants failed", "user", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load grants")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"grants": grants})
}

// GrantUpsert sets a viewer's credits for one category. -1 means
// unlimited.
func (a *Admin) GrantUpsert(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Category string             `json:"category"`
		Credits  models.CreditValue `json:"credits"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}

	cat, err := a.categories.FindBySlug(req.Category)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save grant")
		return
	}
	if cat == nil {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}

	if err := a.grants.Upsert(userID, req.Category, req.Credits); err != nil {
		slog.Error("upsert grant failed", "user", userID, "category", req.Category, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save grant")
		return
	}

	slog.Info("grant saved", "user", userID, "category", req.Category, "credits", req.Credits)
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GrantDelete revokes a viewer's grant for one category.
func (a *Admin) GrantDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	category := chi.URLParam(r, "category")

	if err := a.grants.Delete(userID, category); err != nil {
		slog.Error("delete grant failed", "user", userID, "category", category, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete grant")
		return
	}

	slog.Info("grant revoked", "user", userID, "category", category)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- helpers ---

// findTemplate parses the {id} URL param and loads the template, writing
// the error response on failure.
func (a *Admin) findTemplate(w http.ResponseWriter, r *http.Request) (*models.CategoryTemplate, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return nil, false
	}
	tmpl, err := a.templates.FindByID(id)
	if err != nil {
		slog.Error("find template failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load template")
		return nil, false
	}
	if tmpl == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return nil, false
	}
	return tmpl, true
}

// findListing parses the {id} URL param and loads the listing, writing
// the error response on failure.
func (a *Admin) findListing(w http.ResponseWriter, r *http.Request) (*models.Listing, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid listing id")
		return nil, false
	}
	l, err := a.listings.FindByID(id)
	if err != nil {
		slog.Error("find listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load listing")
		return nil, false
	}
	if l == nil {
		respondError(w, http.StatusNotFound, "listing not found")
		return nil, false
	}
	return l, true
}

// invalidateListing evicts one listing's derived presentations from the
// in-process memo and the shared Valkey cache.
func (a *Admin) invalidateListing(r *http.Request, listingID uuid.UUID) {
	a.resolver.InvalidateListing(listingID.String())
	if a.presCache != nil {
		a.presCache.InvalidateListing(r.Context(), listingID.String())
	}
}

// uniqueSlug derives a slug from the title, suffixing a counter on
// collision.
func (a *Admin) uniqueSlug(title string) (string, error) {
	base := slug.Generate(title)
	if base == "" {
		base = uuid.NewString()[:8]
	}

	candidate := base
	for i := 2; ; i++ {
		existing, err := a.listings.FindBySlug(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// detectContentType sniffs the content type from the file head and
// rewinds the reader.
func detectContentType(file multipart.File) string {
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	file.Seek(0, io.SeekStart)
	return http.DetectContentType(buf[:n])
}
