// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"listora/internal/models"
)

// ListingStore handles all listing-related database operations.
// Custom fields are stored as a JSONB document whose shape follows the
// category's template but is never trusted to.
type ListingStore struct {
	db *sql.DB
}

// NewListingStore creates a new ListingStore with the given database connection.
func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

const listingColumns = `id, title, slug, price, location, category, is_premium,
	       premium_until, custom_fields, owner_id, created_at, updated_at`

// scanListing reads one listing row, decoding the JSONB custom fields.
func scanListing(row interface{ Scan(...any) error }) (*models.Listing, error) {
	l := &models.Listing{}
	var fields []byte
	var ownerID sql.Null[uuid.UUID]
	if err := row.Scan(
		&l.ID, &l.Title, &l.Slug, &l.Price, &l.Location, &l.Category,
		&l.IsPremium, &l.PremiumUntil, &fields, &ownerID, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		l.OwnerID = ownerID.V
	}
	// CustomFields tolerates malformed payloads, including double-encoded
	// objects from external feeds.
	if err := json.Unmarshal(fields, &l.CustomFields); err != nil {
		l.CustomFields = models.CustomFields{}
	}
	return l, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}

// List returns listings newest first, optionally filtered by category.
func (s *ListingStore) List(f ListFilter) ([]models.Listing, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	args := []any{}
	if f.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, f.Category)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// FindByID retrieves a listing by its UUID. Returns nil if not found.
func (s *ListingStore) FindByID(id uuid.UUID) (*models.Listing, error) {
	l, err := scanListing(s.db.QueryRow(`
		SELECT `+listingColumns+` FROM listings WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find listing by id: %w", err)
	}
	return l, nil
}

// FindBySlug retrieves a listing by its slug. Returns nil if not found.
func (s *ListingStore) FindBySlug(slug string) (*models.Listing, error) {
	l, err := scanListing(s.db.QueryRow(`
		SELECT `+listingColumns+` FROM listings WHERE slug = $1
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find listing by slug: %w", err)
	}
	return l, nil
}

// Create inserts a new listing and returns it with the generated ID.
func (s *ListingStore) Create(l *models.Listing) (*models.Listing, error) {
	fields, err := json.Marshal(l.CustomFields)
	if err != nil {
		return nil, fmt.Errorf("encode custom fields: %w", err)
	}

	var owner any
	if l.OwnerID != uuid.Nil {
		owner = l.OwnerID
	}

	result, err := scanListing(s.db.QueryRow(`
		INSERT INTO listings (title, slug, price, location, category,
		                      is_premium, premium_until, custom_fields, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+listingColumns+`
	`, l.Title, l.Slug, l.Price, l.Location, l.Category,
		l.IsPremium, l.PremiumUntil, fields, owner))
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return result, nil
}

// Update modifies an existing listing and bumps updated_at, which retires
// every cached presentation of the old revision.
func (s *ListingStore) Update(l *models.Listing) error {
	fields, err := json.Marshal(l.CustomFields)
	if err != nil {
		return fmt.Errorf("encode custom fields: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE listings SET
			title = $1, slug = $2, price = $3, location = $4, category = $5,
			is_premium = $6, premium_until = $7, custom_fields = $8,
			updated_at = NOW()
		WHERE id = $9
	`, l.Title, l.Slug, l.Price, l.Location, l.Category,
		l.IsPremium, l.PremiumUntil, fields, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// Delete removes a listing by ID. Attachments cascade.
func (s *ListingStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// CountByCategory returns the number of listings in the given category.
func (s *ListingStore) CountByCategory(category string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM listings WHERE category = $1`, category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

// ExpirePremium demotes premium listings whose paid window has lapsed
// and returns their IDs so callers can invalidate cached presentations.
func (s *ListingStore) ExpirePremium(now time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.Query(`
		UPDATE listings
		SET is_premium = FALSE, updated_at = NOW()
		WHERE is_premium = TRUE AND premium_until IS NOT NULL AND premium_until < $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire premium listings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired listing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
