// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing represents a marketplace listing. Beyond the fixed columns,
// every category-specific attribute lives in CustomFields, whose shape is
// dictated by the category's template — but listings authored against an
// older template version, or imported from external feeds, may carry
// arbitrary keys and arbitrarily shaped values. CustomFields is therefore
// untrusted input everywhere it is read.
type Listing struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	Price        float64      `json:"price"`
	Location     string       `json:"location"`
	Category     string       `json:"category"`
	IsPremium    bool         `json:"is_premium"`
	PremiumUntil *time.Time   `json:"premium_until,omitempty"`
	CustomFields CustomFields `json:"custom_fields"`
	OwnerID      uuid.UUID    `json:"owner_id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PremiumExpired reports whether a premium listing's paid window has
// lapsed. Listings without a deadline never expire.
func (l *Listing) PremiumExpired(now time.Time) bool {
	return l.IsPremium && l.PremiumUntil != nil && l.PremiumUntil.Before(now)
}

// CustomFields is the open-ended key/value payload of a listing.
// External feeds sometimes deliver it double-encoded (a JSON string
// containing a JSON object), so unmarshalling tolerates both forms.
type CustomFields map[string]any

// UnmarshalJSON accepts either a JSON object or a JSON string that itself
// encodes an object. Anything else is treated as an empty map rather than
// an error — malformed listing payloads must never break a page.
func (cf *CustomFields) UnmarshalJSON(data []byte) error {
	var direct map[string]any
	if err := json.Unmarshal(data, &direct); err == nil {
		*cf = direct
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		var nested map[string]any
		if err := json.Unmarshal([]byte(encoded), &nested); err == nil {
			*cf = nested
			return nil
		}
	}

	*cf = CustomFields{}
	return nil
}

// Lookup returns the value for key, checking the listing's well-known
// top-level fields first and falling back to CustomFields. The boolean
// reports whether anything was found.
func (l *Listing) Lookup(key string) (any, bool) {
	switch strings.ToLower(key) {
	case "title":
		return l.Title, l.Title != ""
	case "price":
		return l.Price, true
	case "location":
		return l.Location, l.Location != ""
	case "category":
		return l.Category, l.Category != ""
	}
	if l.CustomFields == nil {
		return nil, false
	}
	v, ok := l.CustomFields[key]
	return v, ok
}
