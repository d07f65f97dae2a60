package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hxuan190/curve-route-engine/internal/common"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
)

// limiterIdleTTL is how long an idle client's bucket is kept
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	clients map[string]*clientLimiter
	sweptAt time.Time
}

func NewRateLimiter(rps, burst int) *RateLimiter {
	return &RateLimiter{
		rate:    rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		sweptAt: time.Now(),
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	if now.Sub(rl.sweptAt) > limiterIdleTTL {
		rl.sweep(now)
	}
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(rl.clients, ip)
		}
	}
	rl.sweptAt = now
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			httputil.HandleHttpError(c, common.HTTPErrorTooManyRequests(""))
			c.Abort()
			return
		}
		c.Next()
	}
}
