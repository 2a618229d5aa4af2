package server

import (
	"context"
	"fmt"
	"time"

	"todo-web/internal/auth"
	"todo-web/internal/config"
	"todo-web/internal/handlers"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/storage"
	"todo-web/internal/todo"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	StoreGorm   = "gorm"
	StoreMemory = "memory"
)

// Config holds process level settings
type Config struct {
	Port            string        // Listen port when TLS is off
	StoreBackend    string        // gorm or memory
	Version         string        // Reported by /health/detailed
	ShutdownTimeout time.Duration // Grace period for in-flight requests
	CleanupInterval time.Duration // How often expired refresh tokens are purged; 0 disables
}

// NewConfigFromEnv creates a server Config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Port:            config.GetEnv("PORT", "8080"),
		StoreBackend:    config.GetEnv("STORE_BACKEND", StoreGorm),
		Version:         config.GetEnv("APP_VERSION", "dev"),
		ShutdownTimeout: config.GetEnvSeconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		CleanupInterval: config.GetEnvSeconds("TOKEN_CLEANUP_INTERVAL_SECONDS", time.Hour),
	}
}

// NewStore picks the document store backend
func NewStore(backend string, db *gorm.DB) (storage.Store, error) {
	switch backend {
	case StoreMemory:
		logging.Logger.Info("Using in-memory document store")
		return storage.NewMemoryStore(), nil
	case StoreGorm:
		if db == nil {
			return nil, fmt.Errorf("store backend %q needs a database connection", backend)
		}
		logging.Logger.Info("Using database document store")
		return storage.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Dependencies are the services the router hands to its handlers
type Dependencies struct {
	DB          *gorm.DB
	Store       storage.Store
	AuthService *auth.Service
	Sessions    *auth.SessionManager
	Registry    *todo.Registry
	Images      handlers.ImageSource
	Collection  string
	Version     string
	CORS        *middleware.CORSConfig
	Security    *middleware.SecurityConfig
	RateLimit   *middleware.RateLimitConfig
}

// NewRouter builds the gin engine with every page, API and health route
func NewRouter(deps *Dependencies) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())

	if err := router.SetTrustedProxies(deps.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	if err := handlers.LoadTemplates(router); err != nil {
		return nil, err
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(deps.Security.MaxRequestBodySize))
	router.Use(middleware.GlobalRateLimiter(deps.RateLimit))

	jwtConfig := deps.AuthService.JWTConfig()
	pages := handlers.NewPageHandler(deps.AuthService, deps.Sessions, deps.Registry)
	todos := handlers.NewTodoHandler(deps.Registry, deps.Images)
	authAPI := handlers.NewAuthHandler(deps.AuthService)
	health := handlers.NewHealthHandler(deps.DB, deps.Store, deps.Collection, deps.Version)

	// Sign-in screen
	optionalSession := middleware.OptionalSessionAuth(deps.Sessions, jwtConfig)
	authLimiter := middleware.AuthRateLimiter(deps.RateLimit)
	router.GET("/", optionalSession, pages.SignIn)
	router.POST("/signin", authLimiter, pages.SignInSubmit)
	router.POST("/register", authLimiter, pages.Register)
	router.POST("/signout", optionalSession, pages.SignOut)

	// List view
	list := router.Group(handlers.TodoPath)
	list.Use(middleware.AuthCheck(deps.Sessions, jwtConfig, deps.AuthService))
	list.Use(middleware.PerUserRateLimiter(deps.RateLimit))
	{
		list.GET("", todos.List)
		list.GET("/background", todos.Background)
		list.POST("/items", todos.Create)
		list.POST("/items/:id/delete", middleware.DocumentIDValidator("id"), todos.Delete)
		list.POST("/items/:id/edit", middleware.DocumentIDValidator("id"), todos.Edit)
		list.POST("/items/:id/update", middleware.DocumentIDValidator("id"), todos.Update)
		list.POST("/edit/cancel", todos.CancelEdit)
	}

	// JSON API
	v1 := router.Group("/api/v1")
	v1.Use(middleware.CORS(deps.CORS))
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authLimiter, authAPI.Register)
			authRoutes.POST("/login", authLimiter, authAPI.Login)
			authRoutes.POST("/refresh", authAPI.RefreshToken)
			authRoutes.POST("/logout", authAPI.Logout)
			authRoutes.GET("/profile", middleware.APIAuth(jwtConfig), authAPI.GetProfile)
		}

		v1.GET("/todos", middleware.APIAuth(jwtConfig), middleware.ReadRateLimiter(deps.RateLimit), todos.ListJSON)
	}

	router.GET("/health", health.BasicHealth)
	router.GET("/health/detailed", health.DetailedHealth)
	router.GET("/health/ready", health.ReadinessProbe)
	router.GET("/health/live", health.LivenessProbe)

	return router, nil
}

// RunTokenCleanup purges expired refresh tokens every interval until ctx is done
func RunTokenCleanup(ctx context.Context, service *auth.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := service.CleanupExpiredTokens(ctx)
			if err != nil {
				logging.Logger.WithError(err).Error("Refresh token cleanup failed")
				continue
			}
			if removed > 0 {
				logging.Logger.WithField("removed", removed).Info("Expired refresh tokens removed")
			}
		}
	}
}
