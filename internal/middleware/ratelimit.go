package middleware

import (
	"net/http"
	"strings"
	"time"

	"todo-web/internal/config"
	"todo-web/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int64         // Global and per-user budget
	AuthAttempts   int64         // Sign-in and registration attempts per AuthPeriod
	AuthPeriod     time.Duration // Window for AuthAttempts
}

// NewRateLimitConfigFromEnv creates rate limit config from environment variables
func NewRateLimitConfigFromEnv() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:        config.GetEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerMin: config.GetEnvInt64("RATE_LIMIT_REQUESTS_PER_MIN", 120),
		AuthAttempts:   config.GetEnvInt64("RATE_LIMIT_AUTH_ATTEMPTS", 5),
		AuthPeriod:     time.Duration(config.GetEnvInt("RATE_LIMIT_AUTH_PERIOD_MINUTES", 15)) * time.Minute,
	}
}

// GlobalRateLimiter limits every client IP to RequestsPerMin
func GlobalRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		logging.Logger.Info("Rate limiting is disabled")
		return passThrough
	}

	logging.Logger.Infof("Rate limiting enabled: %d requests per minute", cfg.RequestsPerMin)
	return newRateLimiter("global", limiter.Rate{Period: time.Minute, Limit: cfg.RequestsPerMin}, nil)
}

// ReadRateLimiter allows twice the global budget for JSON reads
func ReadRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return newRateLimiter("read", limiter.Rate{Period: time.Minute, Limit: cfg.RequestsPerMin * 2}, nil)
}

// PerUserRateLimiter keys the budget by signed-in user, falling back to the client IP
func PerUserRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	keyGetter := func(c *gin.Context) string {
		if userID, err := GetUserID(c); err == nil {
			return "user:" + userID.String()
		}
		return "ip:" + c.ClientIP()
	}
	return newRateLimiter("user", limiter.Rate{Period: time.Minute, Limit: cfg.RequestsPerMin}, keyGetter)
}

// AuthRateLimiter throttles credential submissions per client IP
func AuthRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	keyGetter := func(c *gin.Context) string {
		return "auth:ip:" + c.ClientIP()
	}
	logging.Logger.Infof("Auth rate limiting enabled: %d attempts per %s", cfg.AuthAttempts, cfg.AuthPeriod)
	return newRateLimiter("auth", limiter.Rate{Period: cfg.AuthPeriod, Limit: cfg.AuthAttempts}, keyGetter)
}

func passThrough(c *gin.Context) {
	c.Next()
}

// newRateLimiter builds an in-memory limiter; a nil keyGetter keys by client IP
func newRateLimiter(limitType string, rate limiter.Rate, keyGetter func(c *gin.Context) string) gin.HandlerFunc {
	instance := limiter.New(memory.NewStore(), rate)

	options := []mgin.Option{
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logging.Logger.WithFields(map[string]interface{}{
				"client_ip":    c.ClientIP(),
				"path":         c.Request.URL.Path,
				"method":       c.Request.Method,
				"rate_limited": true,
				"limit_type":   limitType,
				"limit":        rate.Limit,
			}).Warn("Rate limit exceeded")

			retryAfter := int(rate.Period.Seconds())
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"code":       "RATE_LIMIT_EXCEEDED",
					"message":    "Too many requests. Please try again later.",
					"retryAfter": retryAfter,
				})
				return
			}
			c.String(http.StatusTooManyRequests, "Too many requests. Please try again later.")
			c.Abort()
		}),
	}
	if keyGetter != nil {
		options = append(options, mgin.WithKeyGetter(keyGetter))
	}

	return mgin.NewMiddleware(instance, options...)
}
