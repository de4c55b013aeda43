package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/response"
)

const limiterIdleTTL = 5 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*limiterEntry
	perSecond rate.Limit
	burst     int
	now       func() time.Time
}

// NewIPRateLimiter constructs a limiter allowing perSecond requests with the given burst.
func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		buckets:   make(map[string]*limiterEntry),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		now:       time.Now,
	}
}

// Allow consumes one token from the bucket of ip.
func (l *IPRateLimiter) Allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.buckets {
		if now.Sub(entry.seen) > limiterIdleTTL {
			delete(l.buckets, key)
		}
	}
	entry, ok := l.buckets[ip]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(l.perSecond, l.burst)}
		l.buckets[ip] = entry
	}
	entry.seen = now
	return entry.lim.AllowN(now, 1)
}

// RateLimit rejects callers exceeding their per-IP budget with RATE_LIMITED.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP()) {
			response.Abort(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
