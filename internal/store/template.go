// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"listora/internal/models"
)

// TemplateStore handles all category template database operations.
// Template steps are stored as a JSONB document.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, category, name, version, is_active, steps, created_at, updated_at`

// scanTemplate reads one template row, decoding the JSONB steps column.
func scanTemplate(row interface{ Scan(...any) error }) (*models.CategoryTemplate, error) {
	t := &models.CategoryTemplate{}
	var steps []byte
	if err := row.Scan(
		&t.ID, &t.Category, &t.Name, &t.Version, &t.IsActive,
		&steps, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &t.Steps); err != nil {
		return nil, fmt.Errorf("decode template steps: %w", err)
	}
	return t, nil
}

// List returns all templates ordered by category and name.
func (s *TemplateStore) List() ([]models.CategoryTemplate, error) {
	rows, err := s.db.Query(`
		SELECT ` + templateColumns + `
		FROM category_templates
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.CategoryTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(id uuid.UUID) (*models.CategoryTemplate, error) {
	t, err := scanTemplate(s.db.QueryRow(`
		SELECT `+templateColumns+`
		FROM category_templates WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// FindActiveByCategory returns the active template for the given category.
// Only one template per category is active at a time; returns nil when
// the category has no active template.
func (s *TemplateStore) FindActiveByCategory(category string) (*models.CategoryTemplate, error) {
	t, err := scanTemplate(s.db.QueryRow(`
		SELECT `+templateColumns+`
		FROM category_templates
		WHERE category = $1 AND is_active = TRUE
		LIMIT 1
	`, category))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active template: %w", err)
	}
	return t, nil
}

// Create inserts a new template at version 1. Does NOT activate it automatically.
func (s *TemplateStore) Create(t *models.CategoryTemplate) (*models.CategoryTemplate, error) {
	steps, err := json.Marshal(t.Steps)
	if err != nil {
		return nil, fmt.Errorf("encode template steps: %w", err)
	}

	result, err := scanTemplate(s.db.QueryRow(`
		INSERT INTO category_templates (category, name, version, is_active, steps)
		VALUES ($1, $2, 1, FALSE, $3)
		RETURNING `+templateColumns+`
	`, t.Category, t.Name, steps))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return result, nil
}

// Update modifies a template's name and steps and increments its version.
// Any presentation resolved against the previous version becomes stale by
// key, so no explicit invalidation is needed here.
func (s *TemplateStore) Update(t *models.CategoryTemplate) error {
	steps, err := json.Marshal(t.Steps)
	if err != nil {
		return fmt.Errorf("encode template steps: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE category_templates SET
			name = $1, steps = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3
	`, t.Name, steps, t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Activate sets a template as the active one for its category, deactivating
// any other template of the same category. Uses a transaction for atomicity.
func (s *TemplateStore) Activate(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Get the template's category.
	var category string
	err = tx.QueryRow(`SELECT category FROM category_templates WHERE id = $1`, id).Scan(&category)
	if err != nil {
		return fmt.Errorf("get template category: %w", err)
	}

	// Deactivate all templates of this category.
	_, err = tx.Exec(`UPDATE category_templates SET is_active = FALSE WHERE category = $1`, category)
	if err != nil {
		return fmt.Errorf("deactivate templates: %w", err)
	}

	// Activate the target template.
	_, err = tx.Exec(`UPDATE category_templates SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activate template: %w", err)
	}

	return tx.Commit()
}

// Delete removes a template by ID. Cannot delete an active template.
func (s *TemplateStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM category_templates WHERE id = $1 AND is_active = FALSE`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("cannot delete: template is active or not found")
	}
	return nil
}

// Count returns the total number of templates.
func (s *TemplateStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM category_templates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}
