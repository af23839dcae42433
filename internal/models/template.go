// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType categorizes a template field for input rendering and for the
// presentation resolver's media/summary heuristics.
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeNumber        FieldType = "number"
	FieldTypeSelect        FieldType = "select"
	FieldTypeImage         FieldType = "image"
	FieldTypeImages        FieldType = "images"
	FieldTypePhoto         FieldType = "photo"
	FieldTypeCover         FieldType = "cover"
	FieldTypeFile          FieldType = "file"
	FieldTypeVideo         FieldType = "video"
	FieldTypeURL           FieldType = "url"
	FieldTypeLink          FieldType = "link"
	FieldTypeSectionHeader FieldType = "section_header"
)

// IsMedia returns true for field types whose values hold image content.
func (ft FieldType) IsMedia() bool {
	switch ft {
	case FieldTypeImage, FieldTypeImages, FieldTypePhoto, FieldTypeCover, FieldTypeFile:
		return true
	}
	return false
}

// FieldDefinition describes one admin-configured field of a category
// template. FieldName keys into a listing's custom fields; the display
// flags drive card presentation.
type FieldDefinition struct {
	FieldName     string    `json:"field_name"`
	FieldLabel    string    `json:"field_label"`
	FieldType     FieldType `json:"field_type"`
	IsCoverImage  bool      `json:"is_cover_image"`
	DisplayInCard bool      `json:"display_in_card"`
	CardPriority  int       `json:"card_priority"`
	IsVisible     bool      `json:"is_visible"`
}

// UnmarshalJSON defaults is_visible to true when the key is absent.
// Admin payloads only write the flag when a field is explicitly hidden,
// so the zero value must not be read as hidden.
func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	type alias FieldDefinition
	aux := struct {
		*alias
		IsVisible *bool `json:"is_visible"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.IsVisible = aux.IsVisible == nil || *aux.IsVisible
	return nil
}

// TemplateStep groups fields into one page of the authoring wizard.
// Step order is significant: it defines field priority for presentation.
type TemplateStep struct {
	Title  string            `json:"title"`
	Fields []FieldDefinition `json:"fields"`
}

// CategoryTemplate is the admin-defined schema for one listing category.
// Steps are stored as a JSONB document; Version is bumped on every update
// so downstream caches keyed by (ID, Version) self-invalidate.
type CategoryTemplate struct {
	ID        uuid.UUID      `json:"id"`
	Category  string         `json:"category"`
	Name      string         `json:"name"`
	Version   int            `json:"version"`
	IsActive  bool           `json:"is_active"`
	Steps     []TemplateStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Fields returns the template's field definitions flattened across steps,
// preserving step order then in-step order.
func (t *CategoryTemplate) Fields() []FieldDefinition {
	if t == nil {
		return nil
	}
	var out []FieldDefinition
	for _, step := range t.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// CoverField returns the first field flagged as the cover image, or nil.
func (t *CategoryTemplate) CoverField() *FieldDefinition {
	fields := t.Fields()
	for i := range fields {
		if fields[i].IsCoverImage {
			return &fields[i]
		}
	}
	return nil
}
