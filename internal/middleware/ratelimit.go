// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// ByClient counts requests per client IP.
func ByClient(r *http.Request) string {
	return clientIP(r)
}

// ByClientAndTemplate counts requests per client IP and template, so a
// preview loop on one template does not use up the budget for the others.
// It relies on the {id} route parameter and falls back to the IP alone.
func ByClientAndTemplate(r *http.Request) string {
	ip := clientIP(r)
	if id := chi.URLParam(r, "id"); id != "" {
		return ip + "|" + id
	}
	return ip
}

// bucket holds the request times of one key inside the current window.
type bucket struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter is a sliding-window limiter guarding the render and export
// endpoints.
type RateLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*bucket
	limit    int
	window   time.Duration
	key      KeyFunc
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// LimiterOption configures a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithKey sets how requests are grouped. The default is ByClient.
func WithKey(fn KeyFunc) LimiterOption {
	return func(rl *RateLimiter) {
		if fn != nil {
			rl.key = fn
		}
	}
}

// NewRateLimiter allows limit requests per key within window. Idle buckets
// are swept every five minutes until Stop is called.
func NewRateLimiter(limit int, window time.Duration, opts ...LimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		key:     ByClient,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) bucketFor(key string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[key]; !ok {
		b = &bucket{}
		rl.buckets[key] = b
	}
	return b
}

// take records a request for key. When the key is over its limit nothing
// is recorded and the wait until the oldest request leaves the window is
// returned instead.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	b := rl.bucketFor(key)
	now := rl.now()
	cutoff := now.Add(-rl.window)

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.times[:0]
	for _, ts := range b.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.times = kept

	if len(b.times) >= rl.limit {
		return false, b.times[0].Add(rl.window).Sub(now)
	}
	b.times = append(b.times, now)
	return true, 0
}

// sweep drops buckets whose requests have all left the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		b.mu.Lock()
		idle := len(b.times) == 0 || !b.times[len(b.times)-1].After(cutoff)
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// Middleware answers 429 with a Retry-After header once a key is over its
// limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(rl.key(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retrySeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

// clientIP returns the originating client address, preferring the
// leftmost X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
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
