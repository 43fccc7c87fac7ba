// File: app/app.go
package app

import (
	"context"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Per-IP budget for the credential endpoints.
	rateLimitRequests = 10
	rateLimitWindow   = time.Minute
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	// The limiter is optional infrastructure: without Redis the credential
	// endpoints simply run unthrottled.
	var redisClient *redis.Client
	if config.AppConfig.Redis.Host != "" {
		redisClient, err = db.ConnectRedis()
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, rate limiting disabled")
			redisClient = nil
		}
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	authService := service.NewAuthService(userRepo, tokenRepo)
	authHandler := handler.NewAuthHandler(authService)

	var limiter *service.RateLimiter
	if redisClient != nil {
		limiter = service.NewRateLimiter(redisClient, rateLimitRequests, rateLimitWindow)
	}

	authMW := handler.AuthMiddleware(authService, userRepo)
	limitMW := handler.RateLimitMiddleware(limiter)

	r := router.NewRouter(authHandler, authMW, limitMW)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
