// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mediaurl

import (
	"net/url"
	"strconv"
	"strings"
)

// transformQuality is the fixed WebP quality requested from the CDN.
// 70 keeps card thumbnails visually clean at roughly a third of the
// original transfer size.
const transformQuality = 70

// DefaultWidth is the card-width transform requested when no width is
// configured.
const DefaultWidth = 640

// Optimizer rewrites image URLs served from the recognized object-storage
// host into CDN transformation requests. URLs on any other host, and
// strings that fail to parse as URLs, pass through untouched — the
// optimizer never fails, it only declines.
type Optimizer struct {
	host  string
	width int
}

// NewOptimizer builds an optimizer for the storage endpoint named by
// publicURL (scheme + host, e.g. the CDN domain in front of the public
// bucket). An empty publicURL disables rewriting entirely.
func NewOptimizer(publicURL string, width int) *Optimizer {
	if width <= 0 {
		width = DefaultWidth
	}
	host := ""
	if publicURL != "" {
		if u, err := url.Parse(publicURL); err == nil {
			host = u.Host
		}
	}
	return &Optimizer{host: host, width: width}
}

// Rewrite returns the CDN transformation request for raw when it lives on
// the recognized storage host, and raw unchanged otherwise. Rooted paths
// ("/bucket/key") are treated as same-host and rewritten too.
func (o *Optimizer) Rewrite(raw string) string {
	if o == nil || o.host == "" || raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	// Absolute URLs must match the storage host; rooted paths are
	// relative to it by construction.
	if u.Host != "" && !strings.EqualFold(u.Host, o.host) {
		return raw
	}
	if u.Host == "" && !strings.HasPrefix(raw, "/") {
		return raw
	}

	q := u.Query()
	q.Set("width", strconv.Itoa(o.width))
	q.Set("quality", strconv.Itoa(transformQuality))
	q.Set("format", "webp")
	u.RawQuery = q.Encode()

	return u.String()
}

// RewriteAll maps Rewrite over a slice, preserving order.
func (o *Optimizer) RewriteAll(urls []string) []string {
	if len(urls) == 0 {
		return urls
	}
	out := make([]string, len(urls))
	for i, raw := range urls {
		out[i] = o.Rewrite(raw)
	}
	return out
}
