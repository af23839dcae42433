// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mediaurl decides whether listing field values are usable URLs,
// whether they plausibly point at images, and rewrites image URLs into
// CDN transformation requests. All functions are pure and never panic;
// anything questionable is simply rejected or passed through.
package mediaurl

import (
	"regexp"
	"strings"
)

// maxURLLen caps accepted URLs. Longer strings are almost always
// serialized objects or free text that leaked into a URL-shaped field.
const maxURLLen = 500

// imageExtensions are the recognized image file extensions, matched
// case-insensitively against the URL path with the query string removed.
var imageExtensions = [...]string{".jpeg", ".jpg", ".gif", ".png", ".webp", ".bmp", ".svg"}

var (
	// blobPathRe matches the platform's object-storage key layout
	// (listings/<uuid>/<file>), which carries no file extension for
	// content-addressed uploads.
	blobPathRe = regexp.MustCompile(`(?i)(^|/)listings/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}/`)

	// imageKeywordRe matches strings that name an image even without a
	// recognizable extension or storage path.
	imageKeywordRe = regexp.MustCompile(`(?i)(image|photo|picture|thumb|cover|logo|banner|attachment)`)
)

// IsValid reports whether the value is a plausible, safe URL: it must
// start with "http" or "/", contain no spaces, and stay under the length
// cap. This guards the presentation layer against object dumps, injected
// markup, and pathological inputs.
func IsValid(s string) bool {
	if s == "" || len(s) > maxURLLen {
		return false
	}
	if !strings.HasPrefix(s, "http") && !strings.HasPrefix(s, "/") {
		return false
	}
	return !strings.Contains(s, " ")
}

// IsLikelyImage reports whether the value is a valid URL that plausibly
// points at an image: by extension, by the object-storage key convention,
// or by an image-indicating keyword anywhere in the string.
func IsLikelyImage(s string) bool {
	if !IsValid(s) {
		return false
	}

	path := s
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	lower := strings.ToLower(path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	if blobPathRe.MatchString(path) {
		return true
	}

	return imageKeywordRe.MatchString(s)
}
