// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"listora/internal/models"
)

// GrantStore handles per-category view credit grants. A viewer's
// entitlement snapshot is their global premium flag plus one credit
// value per granted category.
type GrantStore struct {
	db *sql.DB
}

// NewGrantStore creates a new GrantStore with the given database connection.
func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

// Grant is one row of viewer_grants.
type Grant struct {
	ID        uuid.UUID          `json:"id"`
	ViewerID  uuid.UUID          `json:"viewer_id"`
	Category  string             `json:"category"`
	Credits   models.CreditValue `json:"credits"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// PermissionsFor builds a viewer's entitlement snapshot. Returns nil
// (not an empty snapshot) when the viewer does not exist, so callers
// fail closed.
func (s *GrantStore) PermissionsFor(viewerID uuid.UUID) (*models.Permissions, error) {
	var isPremium bool
	err := s.db.QueryRow(`SELECT is_premium FROM users WHERE id = $1`, viewerID).Scan(&isPremium)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permissions premium flag: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT category, credits FROM viewer_grants WHERE viewer_id = $1
	`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("permissions grants: %w", err)
	}
	defer rows.Close()

	perms := &models.Permissions{
		IsPremium: isPremium,
		CanView:   make(map[string]models.CreditValue),
	}
	for rows.Next() {
		var category string
		var credits models.CreditValue
		if err := rows.Scan(&category, &credits); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		perms.CanView[category] = credits
	}
	return perms, rows.Err()
}

// ListByViewer returns a viewer's grants ordered by category.
func (s *GrantStore) ListByViewer(viewerID uuid.UUID) ([]Grant, error) {
	rows, err := s.db.Query(`
		SELECT id, viewer_id, category, credits, created_at, updated_at
		FROM viewer_grants WHERE viewer_id = $1 ORDER BY category
	`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.ViewerID, &g.Category, &g.Credits, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Upsert sets a viewer's credit balance for a category, creating the
// grant if it does not exist. Credits of -1 mean unlimited.
func (s *GrantStore) Upsert(viewerID uuid.UUID, category string, credits models.CreditValue) error {
	_, err := s.db.Exec(`
		INSERT INTO viewer_grants (viewer_id, category, credits)
		VALUES ($1, $2, $3)
		ON CONFLICT (viewer_id, category)
		DO UPDATE SET credits = EXCLUDED.credits, updated_at = NOW()
	`, viewerID, category, credits)
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

// Consume spends one credit from a viewer's category grant. Unlimited
// grants are never decremented. Returns false when no spendable credit
// exists; the guard lives in the WHERE clause so concurrent views of the
// last credit cannot double-spend.
func (s *GrantStore) Consume(viewerID uuid.UUID, category string) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE viewer_grants
		SET credits = credits - 1, updated_at = NOW()
		WHERE viewer_id = $1 AND category = $2 AND credits > 0
	`, viewerID, category)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return true, nil
	}

	// Unlimited grants satisfy consumption without a decrement.
	var credits models.CreditValue
	err = s.db.QueryRow(`
		SELECT credits FROM viewer_grants WHERE viewer_id = $1 AND category = $2
	`, viewerID, category).Scan(&credits)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check grant: %w", err)
	}
	return credits == models.CreditUnlimited, nil
}

// Delete removes a viewer's grant for a category.
func (s *GrantStore) Delete(viewerID uuid.UUID, category string) error {
	_, err := s.db.Exec(`
		DELETE FROM viewer_grants WHERE viewer_id = $1 AND category = $2
	`, viewerID, category)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}
