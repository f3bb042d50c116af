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
	"go.uber.org/zap"

	_ "github.com/equilibre-app/equilibre-api/api/swagger"
	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/handler"
	"github.com/equilibre-app/equilibre-api/internal/middleware"
	"github.com/equilibre-app/equilibre-api/internal/repository"
	"github.com/equilibre-app/equilibre-api/internal/service"
	"github.com/equilibre-app/equilibre-api/pkg/cache"
	"github.com/equilibre-app/equilibre-api/pkg/config"
	"github.com/equilibre-app/equilibre-api/pkg/database"
	"github.com/equilibre-app/equilibre-api/pkg/jobs"
	"github.com/equilibre-app/equilibre-api/pkg/logger"
	corsmiddleware "github.com/equilibre-app/equilibre-api/pkg/middleware/cors"
	reqidmiddleware "github.com/equilibre-app/equilibre-api/pkg/middleware/requestid"
	"github.com/equilibre-app/equilibre-api/pkg/storage"
)

// @title Equilibre API
// @version 1.0.0
// @description Routine balance analysis for scheduled events, unavailability and self-reported hours
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Balance.CacheTTL, logr, cfg.Balance.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	manualHoursRepo := repository.NewManualHoursRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "equilibre-api",
	})
	eventSvc := service.NewEventService(eventRepo, cacheSvc, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheSvc, validate, logr)
	manualHoursSvc := service.NewManualHoursService(manualHoursRepo, cacheSvc, validate, logr)

	engineCfg := balance.DefaultConfig()
	if cfg.Balance.DailyCapHours > 0 {
		engineCfg.DailyCapHours = cfg.Balance.DailyCapHours
	}
	if cfg.Balance.MinRestGapHours > 0 {
		engineCfg.MinRestGapHours = cfg.Balance.MinRestGapHours
	}
	if cfg.Balance.RestFloorHours > 0 {
		engineCfg.RestFloorHours = cfg.Balance.RestFloorHours
	}
	balanceSvc := service.NewBalanceService(service.BalanceServiceParams{
		Events:       eventRepo,
		Availability: availabilityRepo,
		ManualHours:  manualHoursRepo,
		Engine:       balance.NewEngine(engineCfg),
		Cache:        cacheSvc,
		CacheTTL:     cfg.Balance.CacheTTL,
		Logger:       logr,
	})

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)

	reportSvc := service.NewReportService(balanceSvc, exportSvc, logr, service.ReportServiceConfig{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportQueue := jobs.NewQueue("balance-report", reportSvc.ProcessJob, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)
	if cfg.Reports.Enabled {
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		go reportSweeper(ctx, reportSvc, cfg.Reports.CleanupInterval, cfg.Reports.SignedURLTTL)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	manualHoursHandler := handler.NewManualHoursHandler(manualHoursSvc)
	balanceHandler := handler.NewBalanceHandler(balanceSvc, reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authProtected := auth.Group("", middleware.JWT(authSvc))
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.POST("/change-password", authHandler.ChangePassword)
	authProtected.GET("/me", authHandler.Me)

	// Downloads authenticate through the signed token in the path.
	api.GET("/balance/report/download/:token", balanceHandler.DownloadReport)

	protected := api.Group("", middleware.JWT(authSvc))

	events := protected.Group("/events")
	events.GET("", eventHandler.List)
	events.POST("", eventHandler.Create)
	events.GET("/:id", eventHandler.Get)
	events.PUT("/:id", eventHandler.Update)
	events.DELETE("/:id", eventHandler.Delete)

	availability := protected.Group("/availability")
	availability.GET("", availabilityHandler.List)
	availability.POST("", availabilityHandler.Create)
	availability.PUT("/:id", availabilityHandler.Update)
	availability.DELETE("/:id", availabilityHandler.Delete)

	manualHours := protected.Group("/manual-hours")
	manualHours.GET("", manualHoursHandler.List)
	manualHours.PUT("", manualHoursHandler.Upsert)
	manualHours.DELETE("/:weekStart", manualHoursHandler.Delete)

	protected.GET("/balance", balanceHandler.Analyze)
	protected.POST("/balance/report", balanceHandler.CreateReport)
	protected.GET("/balance/report/:id", balanceHandler.GetReport)

	protected.GET("/system/metrics", metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func reportSweeper(ctx context.Context, reports *service.ReportService, interval, fileTTL time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reports.Sweep(fileTTL)
		}
	}
}
