package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window limiter keyed by client IP. State is
// per-instance, in memory.
type RateLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a limiter allowing `limit` requests per `window`.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// exceeded records an attempt for key and reports whether the key is over
// its budget.
func (rl *RateLimiter) exceeded(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(now)
	}
	var valid []time.Time
	for _, t := range rl.attempts[key] {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.attempts[key] = valid
		return true
	}

	rl.attempts[key] = append(valid, now)
	return false
}

// sweep drops keys whose every attempt fell out of the window, so one-off
// clients do not accumulate in the map. Caller holds the mutex.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, attempts := range rl.attempts {
		live := false
		for _, t := range attempts {
			if now.Sub(t) < rl.window {
				live = true
				break
			}
		}
		if !live {
			delete(rl.attempts, key)
		}
	}
	rl.lastSweep = now
}

// Middleware rejects over-budget clients with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.exceeded(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "muitas requisições, aguarde um momento",
			})
			return
		}
		c.Next()
	}
}
