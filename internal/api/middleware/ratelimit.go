package middleware

import (
	"fmt"
	"net/http"
	"time"

	"courier-dispatch/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per identifier+endpoint backed by
// Redis. Any Redis failure allows the request through: losing rate limiting
// is preferable to losing traffic.
type RateLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

// NewRateLimiter builds a limiter allowing max requests per window.
func NewRateLimiter(rdb *redis.Client, max int64, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Middleware enforces the limit keyed on the caller's IP and request path.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:%s:%s", c.RealIP(), c.Path())

			pipe := rl.rdb.TxPipeline()
			count := pipe.Incr(c.Request().Context(), key)
			pipe.Expire(c.Request().Context(), key, rl.window)
			if _, err := pipe.Exec(c.Request().Context()); err != nil {
				c.Logger().Warnf("rate limit check failed, allowing request: %v", err)
				return next(c)
			}

			if count.Val() > rl.max {
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Code:    "RATE_LIMITED",
					Message: "Too many requests, slow down",
				})
			}
			return next(c)
		}
	}
}
