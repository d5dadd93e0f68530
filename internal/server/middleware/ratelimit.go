package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	idle       time.Duration
	sweepEvery time.Duration
	nextSweep  time.Time
	sweeps     int
	clock      clockwork.Clock
}

// NewRateLimiter allows perSecond sustained requests with bursts of burst per IP.
// Buckets unused for 10 minutes are dropped by a sweep that runs at most once a minute.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      limit,
		burst:      burst,
		idle:       10 * time.Minute,
		sweepEvery: time.Minute,
		clock:      clock,
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.clock.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitors[ip]
	if !ok {
		if !now.Before(rl.nextSweep) {
			rl.evictLocked(now)
			rl.nextSweep = now.Add(rl.sweepEvery)
		}
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	rl.sweeps++
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware returns 429 once the client IP has exhausted its bucket.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"success": false, "message": "Too many requests"})
			}
			return next(c)
		}
	}
}
