package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dinesight/internal/cache"
	"dinesight/internal/pkg/response"
)

// RateLimit counts requests per client IP in fixed windows on the injected
// cache store. When the store is unreachable the request is allowed through;
// losing rate limiting is cheaper than losing logins.
func RateLimit(store cache.Store, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()

		count, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
			c.Next()
			return
		}

		if count > limit {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
