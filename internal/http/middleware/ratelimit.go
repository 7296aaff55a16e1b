package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc picks the bucket a request draws from.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP buckets signed-in staff by user id and everyone else by IP.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(userIDKey); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// KeyByRouteAndIP gives each client IP one bucket per route, so a customer
// who exhausts POST /payment can still send feedback.
func KeyByRouteAndIP() keyFunc {
	return func(c *gin.Context) string {
		return IdempotencyScope(c) + "|ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-process token bucket per key. Idle buckets are swept
// every idleTTL. Idempotent replays (see IdempotencyValidator) are never
// limited.
type RateLimiter struct {
	// Name labels rejections in http_rate_limited_total.
	Name string

	rps   rate.Limit
	burst int
	keyFn keyFunc
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	idleTTL   time.Duration
	lastSweep time.Time
}

// NewRateLimiter refills rps tokens per second up to burst (at least 1).
// rps == 0 rejects every request after the first burst.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		Name:    "global",
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Handler enforces the limit. Rejections get 429 rate_limited with a
// Retry-After of one refill interval.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(ctxKeyRateBypass) || rl.limiter(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		httpRateLimited.WithLabelValues(rl.Name, routeLabel(c)).Inc()
		c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
		abortWithError(c, http.StatusTooManyRequests, "rate_limited",
			"rate limit exceeded", "Слишком много запросов, попробуйте позже")
	}
}

// retryAfter is the whole seconds until one token refills, at least 1.
func (rl *RateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 60
	}
	return max(1, int(math.Ceil(1/float64(rl.rps))))
}
