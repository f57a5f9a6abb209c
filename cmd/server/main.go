// Package main runs the events platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/revelry-events/backend/config"
	"github.com/revelry-events/backend/internal/auth"
	"github.com/revelry-events/backend/internal/events"
	"github.com/revelry-events/backend/internal/guests"
	"github.com/revelry-events/backend/internal/middleware"
	"github.com/revelry-events/backend/internal/organizations"
	"github.com/revelry-events/backend/internal/promocodes"
	"github.com/revelry-events/backend/internal/trackinglinks"
	"github.com/revelry-events/backend/internal/worker"
	"github.com/revelry-events/backend/pkg/database"
	"github.com/revelry-events/backend/pkg/queue"
	"github.com/revelry-events/backend/pkg/redis"
	"github.com/revelry-events/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, orgRepo)
	manageAccess := events.RequireEventManageAccess(eventRepo, orgRepo)

	// Guest lists
	guestRepo := guests.NewRepository(pool)
	guestHandler := guests.NewHandler(guestRepo, logger)

	// Tracking links
	linkRepo := trackinglinks.NewRepository(pool)
	linkCacheTTL := time.Duration(cfg.Links.CacheTTLMinutes) * time.Minute
	linkHandler := trackinglinks.NewHandler(linkRepo, rdb.Client, jobQueue, linkCacheTTL, logger)
	clickProcessor := worker.NewClickProcessor(linkRepo, jobQueue, logger)

	// Promo codes
	promoRepo := promocodes.NewRepository(pool)
	promoHandler := promocodes.NewHandler(promoRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: short-link redirect
	router.GET("/t/:code", linkHandler.Resolve)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required). Responses are user-scoped, so shared
	// caches must never store them.
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.PrivateCache())
	{
		// Users (admin only; for guest addition lookups etc.)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Organizations
		api.GET("/organizations", orgHandler.ListMine)
		api.POST("/organizations", orgHandler.Create)
		api.GET("/organizations/:id", orgHandler.GetByID)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", manageAccess, eventHandler.Update)
		api.DELETE("/events/:id", manageAccess, eventHandler.Delete)

		// Guest lists (event creator or org owner only)
		api.GET("/events/:id/guests", manageAccess, guestHandler.List)
		api.POST("/events/:id/guests", manageAccess, guestHandler.Add)
		api.PATCH("/events/:id/guests/:guestId", manageAccess, guestHandler.UpdateStatus)
		api.DELETE("/events/:id/guests/:guestId", manageAccess, guestHandler.Remove)

		// Tracking links
		api.GET("/events/:id/tracking-links", manageAccess, linkHandler.List)
		api.POST("/events/:id/tracking-links", manageAccess, linkHandler.Create)
		api.GET("/events/:id/tracking-links/analytics", manageAccess, linkHandler.Analytics)
		api.DELETE("/events/:id/tracking-links/:linkId", manageAccess, linkHandler.Delete)

		// Promo codes. Validation is open to any signed-in attendee at
		// checkout; management stays behind the gate.
		api.GET("/events/:id/promo-codes", manageAccess, promoHandler.List)
		api.POST("/events/:id/promo-codes", manageAccess, promoHandler.Create)
		api.DELETE("/events/:id/promo-codes/:codeId", manageAccess, promoHandler.Delete)
		api.POST("/events/:id/promo-codes/validate", promoHandler.Validate)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process click worker. Deployments that scale reads run cmd/worker
	// separately; the queue semantics are the same either way.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go clickProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
