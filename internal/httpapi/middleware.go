package httpapi

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/scylladb/vector-store/internal/ratelimit"
)

// annRateLimitCategory is the one rate-limited route this service exposes.
const annRateLimitCategory = "ann"

// rateLimitMiddleware guards the /ann route the way the teacher's
// RateLimitMiddleware guards its tool routes, but against a single fixed
// category rather than a path-derived one: this service has exactly one
// CPU-bound route worth metering.
func rateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result := limiter.Allow(annRateLimitCategory)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			tooManyRequestsError(c, fmt.Sprintf("rate limit exceeded for %s, retry after %d seconds", result.LimitType, retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
