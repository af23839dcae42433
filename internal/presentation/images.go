// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package presentation derives the visual summary of a listing — its
// representative images and card attributes — from the listing's raw
// fields and the category template. Listings rarely declare their images
// cleanly, so collection runs a fixed cascade of fallback strategies and
// merges everything they find.
package presentation

import (
	"regexp"
	"sort"

	"listora/internal/fieldval"
	"listora/internal/mediaurl"
	"listora/internal/models"
)

// standardImageKeys are well-known single-image keys checked in order
// after the template-driven strategies.
var standardImageKeys = [...]string{"image", "cover_image", "photo", "thumbnail", "logo", "banner"}

// textHeavyKeyRe names custom-field keys that hold free text and must be
// skipped by the broad scan — their values can accidentally look URL-ish.
var textHeavyKeyRe = regexp.MustCompile(`(?i)(description|location|email|name|phone)`)

// imageKeyRe flags custom-field keys that name image content.
var imageKeyRe = regexp.MustCompile(`(?i)(image|photo|picture|thumb|cover|logo|banner|gallery)`)

// imageStrategy is one independent collection pass. Strategies append;
// they never short-circuit, so later passes fill gaps left by earlier
// ones and the merge order defines priority.
type imageStrategy func(l *models.Listing, fields []models.FieldDefinition) []string

// imageStrategies is the cascade, in priority order.
var imageStrategies = []imageStrategy{
	coverFieldImages,
	typedFieldImages,
	standardKeyImages,
	mediaURLImages,
	customFieldScan,
}

// CollectImages walks the strategy cascade over the listing and template
// fields (which may be nil), deduplicates preserving first-seen order,
// and returns the raw URL list. When a template-aware run finds nothing
// the cascade is re-run template-blind, so a listing that resolved images
// before its template loaded can never regress to an empty result.
func CollectImages(l *models.Listing, fields []models.FieldDefinition) []string {
	urls := runCascade(l, fields)
	if len(urls) == 0 && fields != nil {
		urls = runCascade(l, nil)
	}
	return urls
}

func runCascade(l *models.Listing, fields []models.FieldDefinition) []string {
	seen := make(map[string]bool)
	var out []string
	for _, strategy := range imageStrategies {
		for _, u := range strategy(l, fields) {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// coverFieldImages takes the template's explicit cover field: a single
// valid URL, or the first usable element of an array value.
func coverFieldImages(l *models.Listing, fields []models.FieldDefinition) []string {
	for _, f := range fields {
		if !f.IsCoverImage {
			continue
		}
		v := fieldval.Decode(l.CustomFields[f.FieldName])
		switch v.Kind {
		case fieldval.Scalar:
			if mediaurl.IsValid(v.Str) {
				return []string{v.Str}
			}
		case fieldval.List:
			for _, item := range v.Items {
				if loc, ok := item.Location(); ok && mediaurl.IsValid(loc) {
					return []string{loc}
				}
			}
		case fieldval.Object:
			if loc, ok := v.Location(); ok && mediaurl.IsValid(loc) {
				return []string{loc}
			}
		}
		return nil
	}
	return nil
}

// typedFieldImages collects from every template field that is media-typed
// or image-named.
func typedFieldImages(l *models.Listing, fields []models.FieldDefinition) []string {
	var out []string
	for _, f := range fields {
		if !f.FieldType.IsMedia() && !imageKeyRe.MatchString(f.FieldName) {
			continue
		}
		out = append(out, extractImageLocations(fieldval.Decode(l.CustomFields[f.FieldName]))...)
	}
	return out
}

// extractImageLocations applies the shared array/object/scalar rules:
// list elements and bare scalars must look like images, while a location
// extracted from an object's url/src/path keys only has to be a valid URL
// (the surrounding key already declared it an image).
func extractImageLocations(v fieldval.Value) []string {
	switch v.Kind {
	case fieldval.Scalar:
		if mediaurl.IsLikelyImage(v.Str) {
			return []string{v.Str}
		}
	case fieldval.Object:
		if loc, ok := v.Location(); ok && mediaurl.IsValid(loc) {
			return []string{loc}
		}
	case fieldval.List:
		var out []string
		for _, item := range v.Items {
			loc, ok := item.Location()
			if !ok {
				continue
			}
			if item.Kind == fieldval.Object {
				if mediaurl.IsValid(loc) {
					out = append(out, loc)
				}
			} else if mediaurl.IsLikelyImage(loc) {
				out = append(out, loc)
			}
		}
		return out
	}
	return nil
}

// standardKeyImages checks the well-known listing keys: the images array
// first, then the fixed single-image keys.
func standardKeyImages(l *models.Listing, _ []models.FieldDefinition) []string {
	var out []string

	if raw, ok := l.CustomFields["images"]; ok {
		for _, loc := range fieldval.Decode(raw).Locations() {
			if mediaurl.IsValid(loc) {
				out = append(out, loc)
			}
		}
	}

	for _, key := range standardImageKeys {
		if loc, ok := fieldval.Decode(l.CustomFields[key]).Location(); ok && mediaurl.IsValid(loc) {
			out = append(out, loc)
		}
	}
	return out
}

// mediaURLImages collects from the unified media_urls array.
func mediaURLImages(l *models.Listing, _ []models.FieldDefinition) []string {
	var out []string
	for _, loc := range fieldval.Decode(l.CustomFields["media_urls"]).Locations() {
		if mediaurl.IsValid(loc) {
			out = append(out, loc)
		}
	}
	return out
}

// customFieldScan sweeps the remaining custom-field keys in two passes:
// a priority pass over image-named keys (including values that are
// themselves JSON-encoded arrays or objects), then a broad pass testing
// every other raw string value, skipping text-heavy keys. The scan always
// runs — it is not gated on template presence.
func customFieldScan(l *models.Listing, fields []models.FieldDefinition) []string {
	if len(l.CustomFields) == 0 {
		return nil
	}

	covered := make(map[string]bool, len(fields)+len(standardImageKeys)+2)
	for _, f := range fields {
		if f.IsCoverImage || f.FieldType.IsMedia() || imageKeyRe.MatchString(f.FieldName) {
			covered[f.FieldName] = true
		}
	}
	covered["images"] = true
	covered["media_urls"] = true
	for _, key := range standardImageKeys {
		covered[key] = true
	}

	// Map iteration order is random; walk keys in sorted order so the
	// scan's output is deterministic across calls.
	keys := make([]string, 0, len(l.CustomFields))
	for k := range l.CustomFields {
		if !covered[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var priority, broad []string
	for _, k := range keys {
		raw := l.CustomFields[k]
		if imageKeyRe.MatchString(k) {
			priority = append(priority, extractImageLocations(fieldval.Decode(raw))...)
			continue
		}
		if textHeavyKeyRe.MatchString(k) {
			continue
		}
		if s, ok := raw.(string); ok && mediaurl.IsLikelyImage(s) {
			broad = append(broad, s)
		}
	}
	return append(priority, broad...)
}
