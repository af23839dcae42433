// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category represents one marketplace vertical (jobs, homes, cars,
// tenders). Restricted categories gate premium listings behind
// per-category view credits instead of the global premium flag.
type Category struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Restricted bool      `json:"restricted"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Virtual field populated by store methods.
	ListingCount int `json:"listing_count"`
}
