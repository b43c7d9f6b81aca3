package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/ratelimit"
)

// RateLimitMiddleware limits requests per client IP. A nil limiter disables
// limiting; Redis errors let the request through.
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request",
				slog.String("path", c.FullPath()),
				slog.String("error", err.Error()),
			)
			c.Next()
			return
		}

		remaining := res.Limit - res.Count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   "Too many requests",
				Message: "Please wait before trying again",
			})
			return
		}

		c.Next()
	}
}
