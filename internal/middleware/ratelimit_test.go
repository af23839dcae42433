package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, 1*time.Second)
	defer rl.Stop()

	now := time.Now()

	// A viewer gets three login attempts inside the window.
	for i := 0; i < 3; i++ {
		if !rl.allow("203.0.113.10", now) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.allow("203.0.113.10", now) {
		t.Error("4th attempt should be throttled")
	}

	// A different client is unaffected.
	if !rl.allow("203.0.113.11", now) {
		t.Error("other client should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(2, 100*time.Millisecond)
	defer rl.Stop()

	now := time.Now()
	rl.allow("203.0.113.10", now)
	rl.allow("203.0.113.10", now)
	if rl.allow("203.0.113.10", now) {
		t.Error("should be throttled inside the window")
	}

	// Once the window slides past the earlier attempts, the client may
	// try again.
	if !rl.allow("203.0.113.10", now.Add(150*time.Millisecond)) {
		t.Error("should be allowed after the window expires")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, 1*time.Second)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.10:40312"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := login(); rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: got status %d, want 200", i+1, rr.Code)
		}
	}

	rr := login()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q, want application/json", ct)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After: got %q, want %q", rr.Header().Get("Retry-After"), "1")
	}
	if !strings.Contains(rr.Body.String(), "too many requests") {
		t.Errorf("body: got %q, want a too-many-requests error", rr.Body.String())
	}
}

// TestRateLimiterMiddlewareSeparatesClients: a throttled client must not
// lock out viewers arriving from other addresses.
func TestRateLimiterMiddlewareSeparatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1*time.Second)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	login := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if login("203.0.113.10") != http.StatusOK {
		t.Fatal("first attempt should pass")
	}
	if login("203.0.113.10") != http.StatusTooManyRequests {
		t.Error("second attempt from the same client should be throttled")
	}
	if login("203.0.113.20") != http.StatusOK {
		t.Error("a different client must not be throttled")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			xff:        "203.0.113.10",
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.10",
		},
		{
			name:       "x-forwarded-for chain keeps original client",
			xff:        "203.0.113.10, 172.16.0.1, 10.0.0.1",
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.10",
		},
		{
			name:       "x-real-ip",
			xri:        "203.0.113.20",
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.20",
		},
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.30:1234",
			want:       "203.0.113.30",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.30",
			want:       "203.0.113.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5, 100*time.Millisecond)
	defer rl.Stop()

	now := time.Now()
	rl.allow("stale-client", now)
	rl.allow("fresh-client", now)

	// Re-touch one client past the first window, then sweep.
	later := now.Add(150 * time.Millisecond)
	rl.allow("fresh-client", later)
	rl.sweep(later)

	rl.mu.Lock()
	_, staleExists := rl.buckets["stale-client"]
	_, freshExists := rl.buckets["fresh-client"]
	count := len(rl.buckets)
	rl.mu.Unlock()

	if staleExists {
		t.Error("stale client bucket should have been swept")
	}
	if !freshExists {
		t.Error("fresh client bucket must survive the sweep")
	}
	if count != 1 {
		t.Errorf("remaining buckets: got %d, want 1", count)
	}
}
