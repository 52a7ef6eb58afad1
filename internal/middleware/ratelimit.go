package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles requests per client IP using a fixed redis window.
type RateLimiter struct {
	redisClient *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redisClient: client}
}

// Limit allows up to limit requests per window for each IP. When no redis
// client is configured the middleware is a pass-through (dev mode).
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.redisClient == nil {
			return c.Next()
		}

		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, c.IP())

		count, err := rl.redisClient.Incr(c.Context(), key).Result()
		if err != nil {
			return c.Next()
		}

		if count == 1 {
			rl.redisClient.Expire(c.Context(), key, window)
		}

		if count > int64(limit) {
			ttl, _ := rl.redisClient.TTL(c.Context(), key).Result()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "Too many requests",
				"retryAfter": fmt.Sprintf("%.0f seconds", ttl.Seconds()),
			})
		}
		return c.Next()
	}
}
