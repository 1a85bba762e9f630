package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	mwopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	"github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows opts.Limit requests per opts.Window and client, with
// the same amount as burst.
func NewRateLimiter(opts mwopts.RateLimitOptions) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(opts.Limit) / opts.Window.Seconds()),
		burst:   opts.Limit,
		idleTTL: 2 * opts.Window,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	cl, ok := r.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// sweep drops limiters of clients idle for longer than idleTTL.
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	r.lastSweep = now
	for key, cl := range r.clients {
		if now.Sub(cl.lastSeen) > r.idleTTL {
			delete(r.clients, key)
		}
	}
}

// RateLimit returns a middleware rejecting clients over their budget with 429.
func RateLimit(opts mwopts.RateLimitOptions) gin.HandlerFunc {
	limiter := NewRateLimiter(opts)
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP()) {
			response.Fail(c, errors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
