package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limitWindow = time.Minute
	idleAfter   = 5 * time.Minute
)

// RateLimiter caps each client IP at a fixed number of requests in any
// one-minute window. A bucket holds a tenth of the budget up front and
// refills with the rest over the window, so burst plus refill never exceeds
// the ceiling.
type RateLimiter struct {
	refill rate.Limit
	burst  int
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

// NewRateLimiter returns nil for a non-positive budget, which disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := max(requestsPerMinute/10, 1)
	perWindow := max(requestsPerMinute-burst, 1)
	return &RateLimiter{
		refill:  rate.Limit(float64(perWindow) / limitWindow.Seconds()),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (r *RateLimiter) Handler() gin.HandlerFunc {
	if r == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(ip string) bool {
	now := r.now()

	r.mu.Lock()
	b, ok := r.buckets[ip]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(r.refill, r.burst)}
		r.buckets[ip] = b
	}
	b.seen = now
	if now.Sub(r.lastSweep) >= idleAfter {
		r.dropIdle(now)
	}
	r.mu.Unlock()

	return b.tokens.AllowN(now, 1)
}

// dropIdle forgets buckets unused for idleAfter; by then they are full again
// so a fresh bucket behaves the same. Caller holds r.mu.
func (r *RateLimiter) dropIdle(now time.Time) {
	for ip, b := range r.buckets {
		if now.Sub(b.seen) > idleAfter {
			delete(r.buckets, ip)
		}
	}
	r.lastSweep = now
}
