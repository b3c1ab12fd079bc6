package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for RateLimiter.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	return rl, clock
}

func search(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/recipes/search?q=pie", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)
	h := rl.Limit(okHandler())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, search(h, "203.0.113.9:5000").Code, "request %d", i+1)
	}
	rec := search(h, "203.0.113.9:5000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many searches, try again shortly"}`, rec.Body.String())
}

func TestRateLimiter_Refills(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	h := rl.Limit(okHandler())

	search(h, "203.0.113.9:5000")
	search(h, "203.0.113.9:5000")
	require.Equal(t, http.StatusTooManyRequests, search(h, "203.0.113.9:5000").Code)

	// one token every 30s
	clock.Advance(31 * time.Second)
	assert.Equal(t, http.StatusOK, search(h, "203.0.113.9:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, search(h, "203.0.113.9:5000").Code)
}

func TestRateLimiter_RejectionDoesNotConsume(t *testing.T) {
	rl, clock := newTestLimiter(1, 10*time.Second)
	h := rl.Limit(okHandler())

	search(h, "198.51.100.1:1")
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusTooManyRequests, search(h, "198.51.100.1:1").Code)
	}
	clock.Advance(11 * time.Second)
	assert.Equal(t, http.StatusOK, search(h, "198.51.100.1:1").Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)
	h := rl.Limit(okHandler())

	assert.Equal(t, http.StatusOK, search(h, "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, search(h, "192.0.2.1:1001").Code)
	assert.Equal(t, http.StatusOK, search(h, "192.0.2.2:1000").Code)
	assert.Equal(t, 2, rl.ActiveKeys())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl, _ := newTestLimiter(10, time.Minute)
	h := rl.Limit(okHandler())

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if search(h, "192.0.2.50:9").Code == http.StatusOK {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)
	h := rl.Limit(okHandler())

	search(h, "192.0.2.1:1")
	clock.Advance(90 * time.Second)
	search(h, "192.0.2.2:1")
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, rl.CleanupExpired())
	assert.Equal(t, 1, rl.ActiveKeys())
	assert.Equal(t, 0, rl.CleanupExpired())
}

func TestStartRateLimitCleanup_StopsWithContext(t *testing.T) {
	rl, _ := newTestLimiter(5, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRateLimitCleanup(ctx, rl, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestCleanupIntervalFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_CLEANUP_INTERVAL", "")
	assert.Equal(t, DefaultCleanupInterval, CleanupIntervalFromEnv())
	t.Setenv("RATELIMIT_CLEANUP_INTERVAL", "90s")
	assert.Equal(t, 90*time.Second, CleanupIntervalFromEnv())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.7:4242", nil, "192.0.2.7"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"no port", "192.0.2.7", nil, "192.0.2.7"},
		{"forwarded first hop", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"forwarded padded", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "  203.0.113.5 "}, "203.0.113.5"},
		{"forwarded garbage falls to real ip", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"real ip garbage falls to remote", "10.0.0.1:1", map[string]string{"X-Real-IP": "nope"}, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
