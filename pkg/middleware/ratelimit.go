package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

// RateLimitConfig defines configuration for rate limiting.
type RateLimitConfig struct {
	// BucketName is the identifier for this rate limit bucket. Routes
	// sharing a BucketName share the same limit.
	BucketName string

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Window is the time window for the limit, e.g. time.Minute.
	Window time.Duration

	// KeyExtractor derives the per-client key. Defaults to the request's
	// remote address.
	KeyExtractor func(c *common.Context) string

	// ExceededHandler produces the response when the limit is exceeded.
	// Defaults to a plain 429.
	ExceededHandler common.Handler
}

// RateLimiter defines the interface for rate limiting algorithms.
type RateLimiter interface {
	// Allow checks whether a request under key is allowed given the
	// limit and window. It also returns the number of remaining requests
	// and the time until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

// UberRateLimiter implements RateLimiter on Uber's leaky-bucket ratelimit
// library, paired with a per-window counter so bursts are bounded by the
// configured limit, not just smoothed.
type UberRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
}

type rateBucket struct {
	limiter     ratelimit.Limiter
	windowStart time.Time
	count       int
}

// NewUberRateLimiter creates a new rate limiter using Uber's ratelimit
// library.
func NewUberRateLimiter() *UberRateLimiter {
	return &UberRateLimiter{buckets: make(map[string]*rateBucket)}
}

// Allow checks whether a request under key is allowed.
func (u *UberRateLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	u.mu.Lock()

	now := time.Now()
	b, ok := u.buckets[key]
	if !ok {
		rps := int(float64(limit) / window.Seconds())
		if rps < 1 {
			rps = 1
		}
		b = &rateBucket{limiter: ratelimit.New(rps), windowStart: now}
		u.buckets[key] = b
	}

	if now.Sub(b.windowStart) > window {
		b.windowStart = now
		b.count = 0
	}

	b.count++
	if b.count > limit {
		reset := window - now.Sub(b.windowStart)
		u.mu.Unlock()
		return false, 0, reset
	}

	remaining := limit - b.count
	reset := window - now.Sub(b.windowStart)
	limiter := b.limiter
	u.mu.Unlock()

	// Pace allowed requests through the leaky bucket. Take blocks until
	// the next slot; it must run outside the lock so one key's pacing
	// never stalls another key's bookkeeping.
	limiter.Take()
	return true, remaining, reset
}

// RateLimit creates a middleware that enforces rate limits. Allowed
// requests carry X-RateLimit-* headers; exceeded requests short-circuit
// with 429 (or the configured handler) without invoking the continuation.
func RateLimit(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) Middleware {
	return func(c *common.Context, next common.Next) error {
		if config == nil {
			return next()
		}

		key := c.Request().RemoteAddr
		if config.KeyExtractor != nil {
			key = config.KeyExtractor(c)
		}
		bucketKey := config.BucketName + ":" + key

		allowed, remaining, reset := limiter.Allow(bucketKey, config.Limit, config.Window)

		header := c.Response().Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if !allowed {
			header.Set("Retry-After", strconv.FormatInt(int64(reset.Seconds()), 10))

			logger.Warn("Rate limit exceeded",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().Path),
				zap.String("key", key),
				zap.Int("limit", config.Limit),
			)

			if config.ExceededHandler != nil {
				return config.ExceededHandler(c)
			}
			return c.Text(http.StatusTooManyRequests, "Too Many Requests")
		}

		return next()
	}
}
