package middlewares

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	"github.com/egov-portal/portal-backend/pkg/ratelimit"
)

// AuthRateLimiter throttles authentication attempts per client IP. The
// limiter key is prefixed so login and OTP endpoints can share a
// limiter without sharing counters.
func AuthRateLimiter(limiter *ratelimit.Limiter, keyPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyPrefix + ":" + c.ClientIP()
		if err := limiter.Allow(c.Request.Context(), key); err != nil {
			apiErr := apierrors.As(err)
			slog.Warn("rate limit exceeded", slog.String("key", key))
			body := gin.H{"error": apiErr.Error(), "code": apiErr.Code()}
			for k, v := range apiErr.Details {
				body[k] = v
			}
			c.JSON(apiErr.Status(), body)
			c.Abort()
			return
		}
		c.Next()
	}
}
