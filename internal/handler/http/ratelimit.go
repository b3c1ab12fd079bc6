package http

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/observability/metrics"
	"recipe-box/pkg/config"
)

// DefaultCleanupInterval applies when RATELIMIT_CLEANUP_INTERVAL is unset.
const DefaultCleanupInterval = 5 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows each client address limit requests per window, as a
// token bucket that refills evenly and holds up to limit tokens. The search
// endpoints sit behind it because every uncached search may cost a call to
// TheMealDB.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	every  rate.Limit
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		name:    "search",
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(max(limit, 1))),
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Limit answers 429 with a Retry-After header once a client's bucket is empty.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait, ok := rl.allow(clientIP(r)); !ok {
			metrics.RecordRateLimited(rl.name)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many searches, try again shortly"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow takes a token for ip. When none is left it reports how long until
// the next one.
func (rl *RateLimiter) allow(ip string) (time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	if c.limiter.AllowN(now, 1) {
		return 0, true
	}
	r := c.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return max(wait, time.Second), false
}

// CleanupExpired forgets clients idle for two windows; by then their bucket
// is full again, so forgetting them changes nothing. It returns how many
// were removed.
func (rl *RateLimiter) CleanupExpired() int {
	cutoff := rl.now().Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	metrics.SetRateLimitClients(rl.name, len(rl.clients))
	return removed
}

// ActiveKeys returns the number of client addresses currently tracked.
func (rl *RateLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// StartRateLimitCleanup runs CleanupExpired every interval until ctx ends.
func StartRateLimitCleanup(ctx context.Context, limiter *RateLimiter, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := limiter.CleanupExpired()
			slog.Debug("rate limit cleanup",
				slog.String("limiter", limiter.name),
				slog.Int("removed", removed),
				slog.Int("active", limiter.ActiveKeys()))
		}
	}
}

// CleanupIntervalFromEnv reads RATELIMIT_CLEANUP_INTERVAL, e.g. "5m".
func CleanupIntervalFromEnv() time.Duration {
	return config.GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval)
}

// clientIP prefers the leftmost X-Forwarded-For entry, then X-Real-IP,
// then the connection's address. The API runs behind a reverse proxy that
// sets these headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
