package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequests(router *gin.Engine, path, remoteAddr string, n int) (ok, limited int) {
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	return ok, limited
}

func TestNewRateLimitConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_ENABLED", "")
		t.Setenv("RATE_LIMIT_REQUESTS_PER_MIN", "")
		t.Setenv("RATE_LIMIT_AUTH_ATTEMPTS", "")
		t.Setenv("RATE_LIMIT_AUTH_PERIOD_MINUTES", "")

		cfg := NewRateLimitConfigFromEnv()

		assert.True(t, cfg.Enabled)
		assert.Equal(t, int64(120), cfg.RequestsPerMin)
		assert.Equal(t, int64(5), cfg.AuthAttempts)
		assert.Equal(t, 15*time.Minute, cfg.AuthPeriod)
	})

	t.Run("invalid numbers fall back", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_ENABLED", "false")
		t.Setenv("RATE_LIMIT_REQUESTS_PER_MIN", "lots")

		cfg := NewRateLimitConfigFromEnv()

		assert.False(t, cfg.Enabled)
		assert.Equal(t, int64(120), cfg.RequestsPerMin)
	})
}

func TestGlobalRateLimiter(t *testing.T) {
	t.Run("disabled lets everything through", func(t *testing.T) {
		router := gin.New()
		router.Use(GlobalRateLimiter(&RateLimitConfig{Enabled: false}))
		router.GET("/todo", okHandler)

		ok, limited := doRequests(router, "/todo", "192.168.1.1:1234", 50)
		assert.Equal(t, 50, ok)
		assert.Zero(t, limited)
	})

	t.Run("enforces the limit per IP", func(t *testing.T) {
		router := gin.New()
		router.Use(GlobalRateLimiter(&RateLimitConfig{Enabled: true, RequestsPerMin: 3}))
		router.GET("/todo", okHandler)

		ok, limited := doRequests(router, "/todo", "192.168.1.2:1234", 5)
		assert.Equal(t, 3, ok)
		assert.Equal(t, 2, limited)

		ok, _ = doRequests(router, "/todo", "192.168.1.3:1234", 1)
		assert.Equal(t, 1, ok, "other clients keep their own budget")
	})

	t.Run("API paths get a JSON body", func(t *testing.T) {
		router := gin.New()
		router.Use(GlobalRateLimiter(&RateLimitConfig{Enabled: true, RequestsPerMin: 1}))
		router.GET("/api/v1/todos", okHandler)

		doRequests(router, "/api/v1/todos", "192.168.1.4:1234", 1)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
		req.RemoteAddr = "192.168.1.4:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
		assert.Contains(t, w.Body.String(), "retryAfter")
	})
}

func TestReadRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(ReadRateLimiter(&RateLimitConfig{Enabled: true, RequestsPerMin: 2}))
	router.GET("/api/v1/todos", okHandler)

	ok, limited := doRequests(router, "/api/v1/todos", "10.0.0.1:1234", 6)
	assert.Equal(t, 4, ok)
	assert.Equal(t, 2, limited)
}

func TestPerUserRateLimiter(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		switch c.Query("user") {
		case "alice":
			c.Set(ContextKeyUserID, alice)
		case "bob":
			c.Set(ContextKeyUserID, bob)
		}
	})
	router.Use(PerUserRateLimiter(&RateLimitConfig{Enabled: true, RequestsPerMin: 2}))
	router.GET("/todo", okHandler)

	ok, limited := doRequests(router, "/todo?user=alice", "10.0.0.2:1234", 3)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, limited)

	ok, _ = doRequests(router, "/todo?user=bob", "10.0.0.2:1234", 2)
	assert.Equal(t, 2, ok, "same IP, different user")
}

func TestAuthRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(AuthRateLimiter(&RateLimitConfig{Enabled: true, AuthAttempts: 2, AuthPeriod: time.Minute}))
	router.GET("/signin", okHandler)

	ok, limited := doRequests(router, "/signin", "10.0.0.3:1234", 4)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, limited)
}
