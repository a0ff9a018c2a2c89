package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"sift_server/pkg/logger"
	"sift_server/pkg/response"
)

// RateLimitConfig configures the HTTP trigger rate limiter. This protects
// the trigger endpoints from hammering; it is independent of the in-process
// limiter that paces model calls.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // nil falls back to a per-process counter
}

// DefaultRateLimitConfig returns sensible defaults for trigger endpoints.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
	}
}

type localWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter limits requests per client IP over a fixed window. With Redis
// the window is shared across replicas; without it each process counts alone.
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*localWindow
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRateLimitConfig().Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateLimitConfig().Window
	}
	return &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*localWindow),
	}
}

// Handler returns the Fiber middleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()

		var (
			count int
			err   error
		)
		if rl.cfg.Redis != nil {
			count, err = rl.redisCount(c, key)
			if err != nil {
				// Redis being down must not block triggers.
				logger.WithError(err).Warn("Rate limit check failed, allowing request")
				return c.Next()
			}
		} else {
			count = rl.localCount(key)
		}

		remaining := rl.cfg.Requests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Requests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.cfg.Requests {
			return response.TooManyRequests(c, "Too many requests, slow down")
		}
		return c.Next()
	}
}

func (rl *RateLimiter) redisCount(c *fiber.Ctx, key string) (int, error) {
	ctx := c.UserContext()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := rl.cfg.Redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := rl.cfg.Redis.Expire(ctx, redisKey, rl.cfg.Window).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func (rl *RateLimiter) localCount(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &localWindow{resetAt: now.Add(rl.cfg.Window)}
		rl.windows[key] = w
	}
	w.count++

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(rl.windows) > 1024 {
		for k, v := range rl.windows {
			if now.After(v.resetAt) {
				delete(rl.windows, k)
			}
		}
	}
	return w.count
}
