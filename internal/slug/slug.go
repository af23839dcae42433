// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates URL-friendly listing slugs from titles.
package slug

import (
	"regexp"
	"strings"
)

// maxLen caps slug length; listing titles routinely run far past what a
// usable URL should carry.
const maxLen = 80

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string, capped at
// maxLen with the cut made at a word boundary where possible.
// Example: "BMW 320d xDrive (2019)" → "bmw-320d-xdrive-2019"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxLen {
		result = result[:maxLen]
		if idx := strings.LastIndexByte(result, '-'); idx > 0 {
			result = result[:idx]
		}
		result = strings.Trim(result, "-")
	}
	return result
}
