package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// ClientLimiter hands out a token bucket per client key.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientEntry
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing rps requests per second with burst per client.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *ClientLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if len(l.limiters) > 1024 {
		l.evictIdle(now)
	}

	return entry.limiter.AllowN(now, 1)
}

func (l *ClientLimiter) evictIdle(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, key)
		}
	}
}

// RateLimit rejects requests above the per-client-IP budget with 429
func RateLimit(limiter *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":             false,
				"error":          "Rate limit exceeded",
				"code":           domain.ErrRateLimit,
				"correlation_id": c.GetString(CorrelationIDKey),
			})
			return
		}
		c.Next()
	}
}
