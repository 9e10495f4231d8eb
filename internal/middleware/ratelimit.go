package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

// rateKey buckets authenticated requests by actor so tellers behind one proxy do not
// share a budget. Anonymous requests fall back to the client address.
func rateKey(c *gin.Context) string {
	if actorID, ok := GetActorIDFromContext(c); ok {
		return "actor:" + actorID
	}
	return "ip:" + c.ClientIP()
}

// ActorRateLimit limits requests per actor. It must run after AuthMiddleware.
func ActorRateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateKey(c)
		logger := GetLoggerFromCtx(c.Request.Context())

		state, err := limiterInstance.Get(c.Request.Context(), key)
		if err != nil {
			logger.Error("Rate limit store unavailable", slog.String("key", key), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Rate limit check unavailable", "code": "UNAVAILABLE"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))
		if state.Reached {
			logger.Warn("Actor rate limit reached", slog.String("key", key), slog.Int64("limit", state.Limit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later.", "code": "RATE_LIMITED"})
			return
		}

		c.Next()
	}
}

// GinMiddlewarize limits by client address ahead of authentication, so floods of
// unauthenticated requests are shed before any token is parsed.
func GinMiddlewarize(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return limitergin.NewMiddleware(limiterInstance)
}
