package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusplan/planner-api/api/swagger"
	"github.com/campusplan/planner-api/internal/handler"
	"github.com/campusplan/planner-api/internal/middleware"
	"github.com/campusplan/planner-api/internal/models"
	"github.com/campusplan/planner-api/internal/repository"
	"github.com/campusplan/planner-api/internal/service"
	"github.com/campusplan/planner-api/pkg/cache"
	"github.com/campusplan/planner-api/pkg/config"
	"github.com/campusplan/planner-api/pkg/database"
	"github.com/campusplan/planner-api/pkg/jobs"
	"github.com/campusplan/planner-api/pkg/logger"
	corsmiddleware "github.com/campusplan/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusplan/planner-api/pkg/middleware/requestid"
	"github.com/campusplan/planner-api/pkg/storage"
)

// @title CampusPlan Planner API
// @version 1.0.0
// @description Course planning and calendar rendering service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, cache disabled", "error", err)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, cfg.Cache.Enabled)
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	termRepo := repository.NewTermRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "planner-api",
		SingleSession:      cfg.JWT.SingleSession,
	})
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, sectionRepo, scheduleSvc, validate, logr)
	calendarSvc := service.NewCalendarService(eventRepo, sectionRepo, termRepo, scheduleSvc, cacheSvc, cfg.Calendar.SectionCacheTTL, logr)
	catalogSvc := service.NewCatalogService(sectionRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(calendarSvc, exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	termHandler := handler.NewTermHandler(calendarSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		api.GET("/catalog/courses", catalogHandler.Search)
		api.GET("/terms", termHandler.List)
		api.PUT("/terms", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), termHandler.Upsert)
		api.GET("/export/:token", exportHandler.Download)
		api.GET("/metrics/snapshot", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

		schedules := api.Group("/schedules", middleware.JWT(authSvc))
		{
			schedules.GET("", scheduleHandler.List)
			schedules.POST("", scheduleHandler.Create)
			schedules.GET("/:id", scheduleHandler.Get)
			schedules.PATCH("/:id", scheduleHandler.Update)
			schedules.DELETE("/:id", scheduleHandler.Delete)

			schedules.POST("/:id/events/sections", eventHandler.AddSection)
			schedules.POST("/:id/events/custom", eventHandler.CreateCustom)
			schedules.PUT("/:id/events/custom/:eventId", eventHandler.UpdateCustom)
			schedules.DELETE("/:id/events/:eventId", eventHandler.Remove)
			schedules.PUT("/:id/events/:eventId/color", eventHandler.SetColor)
			schedules.POST("/:id/events/:eventId/decline", eventHandler.Decline)

			schedules.GET("/:id/calendar", calendarHandler.Render)
			schedules.POST("/:id/calendar/export", exportHandler.Generate)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := exportSvc.Cleanup(0)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			logr.Sugar().Infow("expired exports removed", "count", len(removed))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupQueue.Enqueue(jobs.Job{Type: "cleanup"}); err != nil {
					logr.Sugar().Warnw("failed to enqueue cleanup", "error", err)
				}
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
