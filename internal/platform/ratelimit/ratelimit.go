// Package ratelimit provides a per-key token bucket limiter with idle
// eviction, used to throttle login attempts per client IP.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	limit    rate.Limit
	burst    int
	evictTTL time.Duration
	now      func() time.Time
	// trustForwarded keys requests on X-Forwarded-For instead of RemoteAddr.
	trustForwarded bool
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithTrustedProxy keys requests on the first X-Forwarded-For hop. Only
// enable it when a proxy in front of the server overwrites that header.
func WithTrustedProxy(trusted bool) Option {
	return func(l *Limiter) { l.trustForwarded = trusted }
}

// PerMinute builds a limiter allowing n events per minute with a burst of n.
// A non-positive n disables limiting.
func PerMinute(n int, evictTTL time.Duration, opts ...Option) *Limiter {
	if n <= 0 {
		return New(rate.Inf, 0, evictTTL, opts...)
	}
	return New(rate.Limit(float64(n)/60.0), n, evictTTL, opts...)
}

// New creates a limiter. evictTTL controls how long an idle key is kept.
func New(limit rate.Limit, burst int, evictTTL time.Duration, opts ...Option) *Limiter {
	if evictTTL <= 0 {
		evictTTL = 10 * time.Minute
	}
	l := &Limiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		limit:    limit,
		burst:    burst,
		evictTTL: evictTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the bucket key for r.
func (l *Limiter) Key(r *http.Request) string {
	if l != nil && l.trustForwarded {
		return ForwardedClientIP(r)
	}
	return ClientIP(r)
}

// Allow reports whether key is within its rate limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	now := l.now()
	l.lastSeen[key] = now
	return lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Evict drops keys idle for longer than the eviction TTL.
func (l *Limiter) Evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.evictTTL)
	for key, last := range l.lastSeen {
		if last.Before(cutoff) {
			delete(l.limiters, key)
			delete(l.lastSeen, key)
		}
	}
}

// Run evicts idle keys until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.evictTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Evict()
		}
	}
}

// ForwardedClientIP returns the first X-Forwarded-For hop, falling back to
// the connection address.
func ForwardedClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ClientIP(r)
}

// ClientIP returns the host of the connection address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429. Only requests whose
// method is listed are counted; an empty list counts every request.
func Middleware(l *Limiter, onLimited http.Handler, methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || !counted(r.Method, methods) {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(l.Key(r)) {
				w.Header().Set("Retry-After", "60")
				if onLimited != nil {
					onLimited.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func counted(method string, methods []string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
