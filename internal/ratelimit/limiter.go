// Package ratelimit implements the inbound fixed-window limiter. Each
// (scope, client IP) pair gets an independent window; exceeding the
// scope's limit rejects with the seconds until the window resets.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Scope names one protected route group with its own limit.
type Scope string

const (
	ScopeAPI     Scope = "api"
	ScopeRefresh Scope = "refresh"
	ScopeStream  Scope = "stream"
)

// Limiter counts requests per (scope, client) in fixed windows.
type Limiter struct {
	window time.Duration
	limits map[Scope]int

	mu      sync.Mutex
	buckets map[string]*bucket

	// now is swappable for tests.
	now func() time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

// New creates a Limiter with the given window and per-scope limits.
func New(window time.Duration, limits map[Scope]int) *Limiter {
	return &Limiter{
		window:  window,
		limits:  limits,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow records one request and reports whether it fits the scope's
// window. When rejected, retryAfter is the whole seconds until the window
// resets, at least 1. Allow never blocks.
func (l *Limiter) Allow(scope Scope, clientIP string) (ok bool, retryAfter int) {
	limit, known := l.limits[scope]
	if !known {
		return true, 0
	}

	now := l.now()
	key := fmt.Sprintf("%s:%s", scope, clientIP)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists || !b.resetAt.After(now) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	b.count++
	if b.count <= limit {
		return true, 0
	}

	retryAfter = int(math.Ceil(b.resetAt.Sub(now).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}
