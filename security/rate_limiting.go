package security

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit wraps a handler with a fixed-window counter keyed by user ID
// when authenticated, otherwise by client IP. Used on the public
// payment callback and other unauthenticated surfaces.
func (r *RateLimiter) Limit(name string, max int64, window time.Duration, next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := fmt.Sprintf("ratelimit:%s:%s", name, r.identify(e))

		ctx := e.Request.Context()
		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, window)
			}
			if count > max {
				return e.JSON(429, map[string]string{
					"error": "Rate limit exceeded. Please try again later.",
				})
			}
		}
		// Redis being down never blocks the request itself.

		return next(e)
	}
}

// AntiBot rejects crawler user agents and throttles per-IP request
// bursts on sensitive endpoints.
func (r *RateLimiter) AntiBot(next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return e.JSON(403, map[string]string{
				"error": "Access denied",
			})
		}

		ctx := e.Request.Context()
		key := fmt.Sprintf("antibot:%s", clientIP(e))

		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, time.Minute)
			}
			if count > 30 { // Max 30 requests per minute
				return e.JSON(429, map[string]string{
					"error": "Too many requests",
				})
			}
		}

		return next(e)
	}
}

func (r *RateLimiter) identify(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "user:" + e.Auth.Id
	}
	return "ip:" + clientIP(e)
}

func clientIP(e *core.RequestEvent) string {
	if fwd := e.Request.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(e.Request.RemoteAddr)
	if err != nil {
		return e.Request.RemoteAddr
	}
	return host
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
