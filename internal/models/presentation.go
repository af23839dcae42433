// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// SummaryAttribute is one short label/value pair shown on a listing card.
type SummaryAttribute struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ResolvedPresentation is the derived visual summary of a listing:
// a priority-ordered, deduplicated image list and a capped set of card
// attributes. It is recomputed from the listing and template — never
// stored — so it carries no identity of its own.
type ResolvedPresentation struct {
	Images            []string           `json:"images"`
	SummaryAttributes []SummaryAttribute `json:"summary_attributes"`
}
