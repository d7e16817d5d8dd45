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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unitrack/attendance-api/api/swagger"
	"github.com/unitrack/attendance-api/internal/handler"
	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/repository"
	"github.com/unitrack/attendance-api/internal/service"
	"github.com/unitrack/attendance-api/pkg/cache"
	"github.com/unitrack/attendance-api/pkg/config"
	"github.com/unitrack/attendance-api/pkg/database"
	"github.com/unitrack/attendance-api/pkg/logger"
	corsmiddleware "github.com/unitrack/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unitrack/attendance-api/pkg/middleware/requestid"
)

// @title UniTrack Attendance API
// @version 1.0.0
// @description University event and attendance tracking backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled && redisClient != nil)

	notificationSvc := service.NewNotificationService(cfg.Notifications, metricsSvc, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, nil, logr, cfg.JWT)
	eventSvc := service.NewEventService(eventRepo, attendanceRepo, studentRepo, notificationSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, eventRepo, studentRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	analyticsSvc := service.NewAnalyticsService(eventRepo, attendanceRepo, cacheSvc, metricsSvc, cfg.Analytics.CacheTTL, logr)
	reportSvc := service.NewReportService(eventRepo, attendanceRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Events:     handler.NewEventHandler(eventSvc, metricsSvc, analyticsSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, metricsSvc, analyticsSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Analytics:  handler.NewAnalyticsHandler(analyticsSvc),
		Reports:    handler.NewReportHandler(reportSvc),
	}, authSvc)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}
