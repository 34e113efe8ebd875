// Package ratelimit provides a token-bucket pacer shared by the webhook
// handler (protecting against abusive callers) and the full/retry sweeps
// (pacing outbound calls to stay under remote quotas).
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a classic token-bucket limiter: tokens refill continuously
// at refillRate per second, capped at capacity: burst traffic up to
// capacity is allowed, long-term throughput is bounded by refillRate.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
}

// NewTokenBucket creates a bucket starting full.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Allow consumes a token if one is available. It returns whether the
// request is allowed, the remaining whole tokens, and when the next token
// will become available (useful for a Retry-After header).
func (tb *TokenBucket) Allow() (allowed bool, remaining int, nextTokenTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	now := tb.lastRefill

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, int(tb.tokens), now
	}

	secondsUntilNext := (1.0 - tb.tokens) / tb.refillRate
	return false, 0, now.Add(time.Duration(secondsUntilNext * float64(time.Second)))
}
