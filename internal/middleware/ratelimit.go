package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"product-compare/internal/clock"
	"product-compare/internal/handler"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the request limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window, and the burst size.
	Max int
	// Window is the time it takes an empty bucket to refill completely.
	Window time.Duration
	// Clock defaults to the system clock.
	Clock clock.Clock
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address and one per
// authenticated API key.
type RateLimiter struct {
	cfg   RateLimitConfig
	every rate.Limit

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a limiter. Max must be at least 1.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	return &RateLimiter{
		cfg:     cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Max)),
		buckets: make(map[string]*bucket),
	}
}

// take spends one token from the named bucket. When none is available it
// reports how long until one is.
func (rl *RateLimiter) take(name string, now time.Time) (remaining int, retryAfter time.Duration, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, found := rl.buckets[name]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.cfg.Max)}
		rl.buckets[name] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return 0, delay, false
	}
	return int(b.limiter.TokensAt(now)), 0, true
}

// Sweep drops buckets unused for a whole window. Such buckets are full again,
// so dropping them changes no decision.
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	dropped := 0
	for name, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.cfg.Window {
			delete(rl.buckets, name)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// StartSweeper runs Sweep every window until ctx is cancelled.
func (rl *RateLimiter) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Sweep(rl.cfg.Clock.Now())
			}
		}
	}()
}

// ByClient limits every request by client address. Sending API keys does not
// change the bucket.
func (rl *RateLimiter) ByClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.admit(w, r, "ip:"+ClientIP(r)) {
			next.ServeHTTP(w, r)
		}
	})
}

// ByKey limits by the authenticated key id. It must run after Authenticate;
// requests without a key pass through.
func (rl *RateLimiter) ByKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := KeyFromContext(r.Context())
		if !ok || rl.admit(w, r, "key:"+strconv.FormatInt(key.ID, 10)) {
			next.ServeHTTP(w, r)
		}
	})
}

func (rl *RateLimiter) admit(w http.ResponseWriter, r *http.Request, name string) bool {
	remaining, retryAfter, ok := rl.take(name, rl.cfg.Clock.Now())

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if ok {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	handler.WriteError(w, r, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded")
	return false
}

// ClientIP returns the caller address: X-Forwarded-For, then X-Real-IP, then
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
