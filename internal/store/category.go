// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"listora/internal/models"
)

// CategoryStore handles all category-related database operations.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore with the given database connection.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories ordered by sort order, each with its
// listing count.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.slug, c.name, c.restricted, c.sort_order, c.created_at, c.updated_at,
		       COUNT(l.id) AS listing_count
		FROM categories c
		LEFT JOIN listings l ON l.category = c.slug
		GROUP BY c.slug
		ORDER BY c.sort_order, c.slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.Slug, &c.Name, &c.Restricted, &c.SortOrder,
			&c.CreatedAt, &c.UpdatedAt, &c.ListingCount,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(slug string) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRow(`
		SELECT slug, name, restricted, sort_order, created_at, updated_at
		FROM categories WHERE slug = $1
	`, slug).Scan(&c.Slug, &c.Name, &c.Restricted, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// RestrictedSlugs returns the slugs of all credit-gated categories.
func (s *CategoryStore) RestrictedSlugs() ([]string, error) {
	rows, err := s.db.Query(`SELECT slug FROM categories WHERE restricted ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("restricted categories: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan category slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}
