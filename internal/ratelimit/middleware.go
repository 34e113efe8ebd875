package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Limiter manages one token bucket per caller key (remote address for the
// webhook endpoint, which has no per-user identity).
type Limiter struct {
	mu       sync.RWMutex
	buckets  map[string]*TokenBucket
	capacity int
	refill   float64
}

// NewLimiter builds a Limiter; each distinct key gets its own bucket of the
// given capacity/refill rate.
func NewLimiter(capacity int, refillRate float64) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*TokenBucket),
		capacity: capacity,
		refill:   refillRate,
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) bucketFor(key string) *TokenBucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = NewTokenBucket(l.capacity, l.refill)
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		for key, b := range l.buckets {
			b.mu.Lock()
			idle := time.Since(b.lastRefill) > time.Hour
			b.mu.Unlock()
			if idle {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rate-limits requests keyed by r.RemoteAddr, returning 429 with
// a Retry-After header when the bucket is empty.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := limiter.bucketFor(r.RemoteAddr)
			allowed, remaining, nextTokenTime := bucket.Allow()

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(time.Until(nextTokenTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn().Str("remoteAddr", r.RemoteAddr).Str("path", r.URL.Path).
					Int("retryAfter", retryAfter).Msg("webhook rate limit exceeded")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
