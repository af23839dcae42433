// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sweepInterval is how often idle client buckets are dropped.
const sweepInterval = time.Minute

// RateLimiter throttles requests per client IP over a sliding window.
// The login endpoint is its main consumer; limit and window come from
// configuration.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	limit   int
	window  time.Duration
	stop    chan struct{}
}

// NewRateLimiter allows limit requests per window for each client and
// starts a sweeper that drops buckets with no live timestamps.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		stop:    make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep(time.Now())
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background sweeper.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// allow records an attempt for key and reports whether it stays within
// the limit. Expired timestamps are pruned in place.
func (rl *RateLimiter) allow(key string, now time.Time) bool {
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	live := rl.buckets[key][:0]
	for _, ts := range rl.buckets[key] {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	if len(live) >= rl.limit {
		rl.buckets[key] = live
		return false
	}
	rl.buckets[key] = append(live, now)
	return true
}

// sweep drops buckets whose every timestamp has left the window.
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, bucket := range rl.buckets {
		live := false
		for _, ts := range bucket {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.buckets, key)
		}
	}
}

// Middleware rejects over-limit clients with a JSON 429 and a
// Retry-After hint sized to the window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip, time.Now()) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the client address, trusting proxy headers when
// present: the leftmost X-Forwarded-For entry, then X-Real-IP, then
// RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
