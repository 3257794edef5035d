// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a lightweight per-IP token bucket limiter.
type IPRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	perSecond rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
}

// NewIPRateLimiter allows each client IP requestsPerSecond requests with the
// given burst. Values below the minimum are raised to it.
func NewIPRateLimiter(requestsPerSecond float64, burst int) *IPRateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		entries:   make(map[string]*limiterEntry),
		perSecond: rate.Limit(requestsPerSecond),
		burst:     burst,
		idleTTL:   15 * time.Minute,
		now:       time.Now,
	}
}

func (r *IPRateLimiter) limiterForIP(ip string) *rate.Limiter {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.entries, key)
		}
	}

	entry, ok := r.entries[ip]
	if !ok {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(r.perSecond, r.burst),
			lastSeen: now,
		}
		r.entries[ip] = entry
		return entry.limiter
	}

	entry.lastSeen = now
	return entry.limiter
}

// Tracked returns the number of client IPs with a live bucket.
func (r *IPRateLimiter) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Middleware returns a Gin middleware that enforces the configured limit.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !r.limiterForIP(ip).Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
