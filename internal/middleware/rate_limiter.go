package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hotelbilling/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ── API rate limiter ──────────────────────────────────────────────────────────
// Fixed-window counter per IP kept in Redis, so every replica shares the budget.
// Key: ratelimit:<ip>:<window start unix>. Redis errors let the request through.

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter allows at most limit requests per window per client IP.
// A nil client or non-positive limit disables limiting.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		now := time.Now()
		windowStart := now.Truncate(window)
		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, c.ClientIP(), windowStart.Unix())

		count, err := incrWindow(c.Request.Context(), rdb, key, window)
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			retry := windowStart.Add(window).Sub(now)
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}

func incrWindow(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
