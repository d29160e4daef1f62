// Package ratelimit provides an in-memory token-bucket limiter and the HTTP
// middleware that applies it per client IP or per authenticated user.
package ratelimit

import (
	"sync"
	"time"
)

// bucket tracks the token state for a single key.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter implements a token-bucket rate limiter keyed by arbitrary string
// identifiers (client IP, user ID).
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time // injectable clock for testing
}

// Decision is the outcome of a single Take.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// New creates a Limiter that allows rate requests per window.
func New(rate int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		rate:      rate,
		window:    window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// getBucket returns the bucket for key, creating a full one if it doesn't
// exist. Must be called with l.mu held.
func (l *Limiter) getBucket(key string) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.rate), lastRefill: l.now()}
		l.buckets[key] = b
	}
	return b
}

// refill adds tokens to the bucket based on elapsed time since the last refill.
// Must be called with l.mu held.
func (l *Limiter) refill(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	// Tokens accumulate at rate/window per second.
	b.tokens += elapsed * l.refillRate()
	if b.tokens > float64(l.rate) {
		b.tokens = float64(l.rate)
	}
	b.lastRefill = now
}

func (l *Limiter) refillRate() float64 {
	return float64(l.rate) / l.window.Seconds()
}

// Allow reports whether a request for key is permitted, consuming one token
// when it is.
func (l *Limiter) Allow(key string) bool {
	return l.Take(key).Allowed
}

// Take attempts to consume a token for key and reports the resulting quota.
// Remaining and ResetAt reflect the state after the attempt. Idle buckets
// are swept at most once per window.
func (l *Limiter) Take(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now := l.now(); now.Sub(l.lastSweep) >= l.window {
		l.sweep()
		l.lastSweep = now
	}

	b := l.getBucket(key)
	l.refill(b)

	d := Decision{Limit: l.rate}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	}

	d.Remaining = int(b.tokens)
	if d.Remaining < 0 {
		d.Remaining = 0
	}

	// Time until full replenishment from current level.
	deficit := float64(l.rate) - b.tokens
	d.ResetAt = l.now()
	if deficit > 0 {
		d.ResetAt = d.ResetAt.Add(time.Duration(deficit / l.refillRate() * float64(time.Second)))
	}
	return d
}

// Sweep drops buckets that have fully refilled, which are indistinguishable
// from fresh ones. It returns the number of buckets removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweep()
}

// sweep must be called with l.mu held.
func (l *Limiter) sweep() int {
	removed := 0
	for key, b := range l.buckets {
		l.refill(b)
		if b.tokens >= float64(l.rate) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
