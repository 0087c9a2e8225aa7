package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct public peer", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"public peer cannot spoof", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"}, "198.51.100.9"},
		{"trusted proxy real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.10"}, "198.51.100.10"},
		{"invalid forwarded value", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
		{"no port", "198.51.100.1", nil, "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Fatalf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		ua     string
		want   bool
	}{
		{"plain api call", http.MethodGet, "/api/summary?period=all", "Mozilla/5.0", false},
		{"dotenv scan", http.MethodGet, "/.env", "", true},
		{"sql injection in query", http.MethodGet, "/api/summary?from=1%27%20union%20select", "", true},
		{"scanner agent", http.MethodGet, "/api/data", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/api/data", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &securityMetrics{}
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.ua)
			if got := detectSuspiciousRequest(r, m); got != tt.want {
				t.Fatalf("detectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
			if tt.want && m.suspiciousRequests != 1 {
				t.Fatalf("suspiciousRequests=%d", m.suspiciousRequests)
			}
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }
	m := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("a", m) {
			t.Fatalf("request %d denied", i)
		}
	}
	if rl.allow("a", m) {
		t.Fatal("fourth request allowed")
	}
	if !rl.allow("b", m) {
		t.Fatal("other client denied")
	}
	if m.rateLimitHits != 1 {
		t.Fatalf("rateLimitHits=%d", m.rateLimitHits)
	}

	now = now.Add(time.Minute)
	if !rl.allow("a", m) {
		t.Fatal("request denied after window reset")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.allow("old", nil)
	now = now.Add(11 * time.Minute)
	rl.allow("fresh", nil)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed=%d, want 1", removed)
	}
	if _, ok := rl.clients["fresh"]; !ok {
		t.Fatal("fresh client evicted")
	}
}
