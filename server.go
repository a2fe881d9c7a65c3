package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/config"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/handlers"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/middlewares"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
)

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func main() {
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate runs DDL; in production run it as a separate job instead.
	if config.AutoMigrateOnStart() {
		if err := models.MigrateTable(db); err != nil {
			config.LogError(logger, "server.go", "main", "MigrateTable", nil, err)
			log.Fatalf("migration failed: %v", err)
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("DB_AUTO_MIGRATE not set; skipping AutoMigrate on startup")
	}

	opts := workflow.EngineOptions{
		Timezone:   config.LedgerTimezone(),
		MaxRetries: config.TxMaxRetries(),
		Isolation:  config.TxIsolation(),
	}
	// Redis is optional: without it every replay is answered from the database.
	if config.ConnectRedisWithRetry(sigCtx) {
		if ttl := config.ReplayCacheTTL(); ttl > 0 {
			opts.Cache = workflow.NewRedisReplayCache(config.GetRedisDB(), ttl, logger)
		}
		opts.Locker = workflow.NewRedisKeyLocker(config.GetRedisLock(), 30*time.Second, 2*time.Second, logger)
	}
	engine := workflow.NewEngine(db, logger, opts)

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())

	corsConfig := cors.DefaultConfig()
	if origins := config.CorsAllowOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization", middlewares.HeaderActorUserId, middlewares.HeaderCorrelationId, middlewares.HeaderRequestSource)
	corsConfig.AddExposeHeaders(middlewares.HeaderCorrelationId)
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if rdb := config.GetRedisDB(); rdb != nil && strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(rdb, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r, engine, logger)
	r.NoRoute(customNotFoundHandler)

	port := config.ServerPort()
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("ledger api listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware counts requests per actor (or client IP) in a fixed window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "RateLimit:" + c.ClientIP()
	if actor := strings.TrimSpace(c.GetHeader(middlewares.HeaderActorUserId)); actor != "" {
		key = "RateLimit:actor:" + actor
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		// advisory only: fail open while redis is unavailable
		c.Next()
		return
	}
	if count == 1 {
		rl.client.Expire(c.Request.Context(), key, rl.window)
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
