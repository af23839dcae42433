// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package presentation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"listora/internal/fieldval"
	"listora/internal/models"
)

// maxSummaryAttributes caps how many attributes fit on a listing card.
const maxSummaryAttributes = 6

// maxSummaryValueLen drops values too long to be card-worthy scalars.
const maxSummaryValueLen = 50

// summaryExcludedTypes are field types that never belong on a card:
// long-form text, media, and structural fields are rendered elsewhere.
var summaryExcludedTypes = map[models.FieldType]bool{
	models.FieldTypeTextarea:      true,
	models.FieldTypeImage:         true,
	models.FieldTypeVideo:         true,
	models.FieldTypeFile:          true,
	models.FieldTypeSectionHeader: true,
	models.FieldTypeURL:           true,
	models.FieldTypeLink:          true,
}

// summaryReservedNames are listing slots with dedicated card placement;
// a template must not be able to duplicate them into the attribute row.
var summaryReservedNames = map[string]bool{
	"title":       true,
	"description": true,
	"price":       true,
	"images":      true,
	"location":    true,
	"desc":        true,
	"summary":     true,
}

// SelectSummary picks up to six short attributes to display on a listing
// card. Templates with explicit display_in_card flags choose their own
// attributes ordered by card_priority; templates without any rely on a
// heuristic filter over all visible fields. Attributes with missing,
// URL-ish, or oversized values are dropped either way.
func SelectSummary(l *models.Listing, fields []models.FieldDefinition) []models.SummaryAttribute {
	if len(fields) == 0 {
		return nil
	}

	candidates := summaryCandidates(fields)

	var out []models.SummaryAttribute
	for _, f := range candidates {
		if summaryExcludedTypes[f.FieldType] || summaryReservedNames[strings.ToLower(f.FieldName)] {
			continue
		}

		value, ok := summaryValue(l, f.FieldName)
		if !ok {
			continue
		}

		label := f.FieldLabel
		if label == "" {
			label = f.FieldName
		}
		out = append(out, models.SummaryAttribute{Label: label, Value: value})
		if len(out) == maxSummaryAttributes {
			break
		}
	}
	return out
}

// summaryCandidates applies the mode split: explicit when any field opts
// into the card, heuristic otherwise.
func summaryCandidates(fields []models.FieldDefinition) []models.FieldDefinition {
	explicit := false
	for _, f := range fields {
		if f.DisplayInCard {
			explicit = true
			break
		}
	}

	var candidates []models.FieldDefinition
	if explicit {
		for _, f := range fields {
			if f.DisplayInCard {
				candidates = append(candidates, f)
			}
		}
		// Stable: equal priorities keep their template order.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CardPriority < candidates[j].CardPriority
		})
		return candidates
	}

	for _, f := range fields {
		if f.IsVisible {
			candidates = append(candidates, f)
		}
	}
	return candidates
}

// summaryValue resolves and vets a field's display value: it must decode
// to a non-empty scalar, must not read like a link, and must be short
// enough for a card.
func summaryValue(l *models.Listing, fieldName string) (string, bool) {
	raw, ok := l.Lookup(fieldName)
	if !ok {
		return "", false
	}

	s, ok := fieldval.Decode(raw).ScalarString()
	if !ok || s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "http") || strings.HasPrefix(s, "www.") {
		return "", false
	}
	if utf8.RuneCountInString(s) > maxSummaryValueLen {
		return "", false
	}
	return s, true
}
