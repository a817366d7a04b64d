package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// client is one caller's token bucket. Tokens refill continuously at the
// configured rate up to the burst size.
type client struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

func (cl *client) take(cfg RateLimitConfig, now time.Time) (ok bool, retryAfter int) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.tokens += now.Sub(cl.lastSeen).Seconds() * cfg.RequestsPerSecond
	if max := float64(cfg.BurstSize); cl.tokens > max {
		cl.tokens = max
	}
	cl.lastSeen = now

	if cl.tokens < 1 {
		wait := 1
		if cfg.RequestsPerSecond > 0 {
			wait = int((1-cl.tokens)/cfg.RequestsPerSecond) + 1
		}
		return false, wait
	}
	cl.tokens--
	return true, 0
}

// staleAfter is how long an idle client's bucket is kept before pruning.
const staleAfter = 10 * time.Minute

// RateLimit returns a per-client token bucket rate limiter. Buckets are keyed
// by authenticated user ID when present, falling back to client IP, so a
// shared office NAT does not starve everyone behind it. Idle buckets are
// pruned on the fly to keep the map bounded.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*client)
		lastPrune time.Time
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, ok := c.Get("user_id").(string); ok && userID != "" {
				key = userID
			}

			now := time.Now()
			mu.Lock()
			if now.Sub(lastPrune) > staleAfter {
				for k, cl := range clients {
					if now.Sub(cl.lastSeen) > staleAfter {
						delete(clients, k)
					}
				}
				lastPrune = now
			}
			cl, ok := clients[key]
			if !ok {
				cl = &client{tokens: float64(cfg.BurstSize), lastSeen: now}
				clients[key] = cl
			}
			mu.Unlock()

			ok, retryAfter := cl.take(cfg, now)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64))
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
