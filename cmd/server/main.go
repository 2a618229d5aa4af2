package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-web/internal/auth"
	"todo-web/internal/background"
	"todo-web/internal/database"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/server"
	"todo-web/internal/tlsconfig"
	"todo-web/internal/todo"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win
	envErr := godotenv.Load()

	logging.InitLogger(logging.NewLogConfigFromEnv())
	if envErr == nil {
		logging.Logger.Info("Loaded environment from .env")
	}

	serverConfig := server.NewConfigFromEnv()
	jwtConfig := auth.NewJWTConfigFromEnv()
	sessionConfig := auth.NewSessionConfigFromEnv()
	if jwtConfig.UsesDevelopmentSecret() || sessionConfig.Secret == auth.DevelopmentSecret {
		logging.Logger.Warn("Using development secrets; set JWT_SECRET_KEY and SESSION_SECRET in production")
	}

	dbConfig := database.NewConfigFromEnv()
	db, err := database.Connect(dbConfig)
	if err != nil {
		logging.Logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logging.Logger.WithError(err).Error("Failed to close database")
		}
	}()

	if dbConfig.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logging.Logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	store, err := server.NewStore(serverConfig.StoreBackend, db)
	if err != nil {
		logging.Logger.Fatalf("Failed to create document store: %v", err)
	}

	todoConfig := todo.NewConfigFromEnv()
	authService := auth.NewService(db, jwtConfig)

	router, err := server.NewRouter(&server.Dependencies{
		DB:          db,
		Store:       store,
		AuthService: authService,
		Sessions:    auth.NewSessionManager(sessionConfig),
		Registry:    todo.NewRegistry(store, todoConfig),
		Images:      background.NewClient(background.NewConfigFromEnv()),
		Collection:  todoConfig.Collection,
		Version:     serverConfig.Version,
		CORS:        middleware.NewCORSConfigFromEnv(),
		Security:    middleware.NewSecurityConfigFromEnv(),
		RateLimit:   middleware.NewRateLimitConfigFromEnv(),
	})
	if err != nil {
		logging.Logger.Fatalf("Failed to build router: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.RunTokenCleanup(ctx, authService, serverConfig.CleanupInterval)

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	var redirect *http.Server

	tlsConfig := tlsconfig.NewConfigFromEnv()
	errCh := make(chan error, 2)

	if tlsConfig.Enabled {
		srv.Addr = ":" + tlsConfig.Port
		srv.TLSConfig, err = tlsConfig.ServerConfig()
		if err != nil {
			logging.Logger.Fatalf("Failed to configure TLS: %v", err)
		}

		if tlsConfig.RedirectHTTP {
			redirect = &http.Server{
				Addr:              ":" + tlsConfig.HTTPPort,
				Handler:           tlsconfig.RedirectHandler(tlsConfig.Port),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				logging.Logger.Infof("Redirecting HTTP on port %s to HTTPS", tlsConfig.HTTPPort)
				errCh <- redirect.ListenAndServe()
			}()
		}

		go func() {
			logging.Logger.Infof("Starting HTTPS server on port %s...", tlsConfig.Port)
			errCh <- srv.ListenAndServeTLS("", "")
		}()
	} else {
		srv.Addr = ":" + serverConfig.Port
		go func() {
			logging.Logger.Infof("Starting server on port %s...", serverConfig.Port)
			errCh <- srv.ListenAndServe()
		}()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("Server stopped: %v", err)
		}
	case <-ctx.Done():
		logging.Logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if redirect != nil {
		if err := redirect.Shutdown(shutdownCtx); err != nil {
			logging.Logger.WithError(err).Error("HTTP redirect shutdown failed")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.WithError(err).Error("Server shutdown failed")
	}
	logging.Logger.Info("Server stopped")
}
