package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeForge/internal/api/middleware"
)

const (
	rateLimitWindow = time.Minute
	rateLimitMax    = 30
)

// RateCounter is the subset of the redis client used for fixed-window counters.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// uploadLimiter 按客户端 IP 限制提取与上传频率；Redis 不可用时放行。
type uploadLimiter struct {
	counter RateCounter
	max     int64
	window  time.Duration
}

func newUploadLimiter(counter RateCounter) *uploadLimiter {
	return &uploadLimiter{counter: counter, max: rateLimitMax, window: rateLimitWindow}
}

func (l *uploadLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.counter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate:%s:%s", scope, c.ClientIP())
		count, err := incrWithTTL(c.Request.Context(), l.counter, key, l.window)
		if err != nil {
			middleware.LoggerFromContext(c).Warn("rate counter unavailable", slog.Any("error", err))
			c.Next()
			return
		}
		if count > l.max {
			TooManyRequests(c, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
