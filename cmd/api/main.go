package main

import (
	"context"
	"errors"
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

	_ "github.com/nanoufn/bolsa-api/api/swagger"
	"github.com/nanoufn/bolsa-api/internal/handler"
	"github.com/nanoufn/bolsa-api/internal/middleware"
	"github.com/nanoufn/bolsa-api/internal/repository"
	"github.com/nanoufn/bolsa-api/internal/service"
	"github.com/nanoufn/bolsa-api/pkg/cache"
	"github.com/nanoufn/bolsa-api/pkg/config"
	"github.com/nanoufn/bolsa-api/pkg/database"
	"github.com/nanoufn/bolsa-api/pkg/export"
	"github.com/nanoufn/bolsa-api/pkg/jobs"
	"github.com/nanoufn/bolsa-api/pkg/logger"
	corsmiddleware "github.com/nanoufn/bolsa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nanoufn/bolsa-api/pkg/middleware/requestid"
	"github.com/nanoufn/bolsa-api/pkg/storage"
)

// @title Bolsa Horas API
// @version 1.0.0
// @description Scholarship hours logging with month auto-fill scheduling
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewDayEntryRepository(db)
	slotRepo := repository.NewWeeklySlotRepository(db)
	activityRepo := repository.NewDefaultActivityRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	jobRepo := repository.NewReportJobRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	entrySvc := service.NewDayEntryService(entryRepo, validate, logr)
	slotSvc := service.NewWeeklySlotService(slotRepo, validate, logr)
	activitySvc := service.NewDefaultActivityService(activityRepo, validate, logr)
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, validate, logr)

	fillLock := service.NewRedisFillLock(redisClient, cfg.Scheduler.FillLockTTL)
	monthSvc := service.NewMonthService(
		entryRepo,
		slotRepo,
		activityRepo,
		profileRepo,
		holidaySvc,
		fillLock,
		metricsSvc,
		validate,
		logr,
		cfg.Scheduler,
	)

	var reportSvc *service.ReportService
	reportQueue := jobs.NewQueue(
		"reports",
		func(ctx context.Context, job jobs.Job) error { return reportSvc.Process(ctx, job) },
		jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		},
	)
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc = service.NewReportService(
		entryRepo,
		profileRepo,
		holidaySvc,
		jobRepo,
		export.NewTimesheetRenderer(),
		reportStore,
		reportQueue,
		signer,
		metricsSvc,
		validate,
		logr,
		cfg.APIPrefix+"/reports/download",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	go cleanupReports(ctx, reportStore, cfg.Reports, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	entryHandler := handler.NewDayEntryHandler(entrySvc)
	slotHandler := handler.NewWeeklySlotHandler(slotSvc)
	activityHandler := handler.NewDefaultActivityHandler(activitySvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	monthHandler := handler.NewMonthHandler(monthSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/reports/download", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/entries", entryHandler.List)
		protected.POST("/entries", entryHandler.Create)
		protected.PUT("/entries/:id", entryHandler.Update)
		protected.DELETE("/entries/:id", entryHandler.Delete)

		protected.GET("/slots", slotHandler.List)
		protected.POST("/slots", slotHandler.Create)
		protected.PUT("/slots/:id", slotHandler.Update)
		protected.DELETE("/slots/:id", slotHandler.Delete)

		protected.GET("/activities", activityHandler.List)
		protected.POST("/activities", activityHandler.Create)
		protected.PUT("/activities/:id", activityHandler.Update)
		protected.DELETE("/activities/:id", activityHandler.Delete)

		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Save)

		protected.GET("/holidays", holidayHandler.Calendar)
		protected.POST("/holidays", holidayHandler.Create)
		protected.DELETE("/holidays/:id", holidayHandler.Delete)

		protected.POST("/month/fill-blanks", monthHandler.FillBlanks)

		protected.GET("/reports/preview", reportHandler.Preview)
		protected.GET("/reports/export", reportHandler.Export)
		protected.POST("/reports", reportHandler.Enqueue)
		protected.GET("/reports/:id", reportHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// cleanupReports periodically removes generated PDFs older than the signed
// URL lifetime. Tokens for deleted files would have expired anyway.
func cleanupReports(ctx context.Context, store *storage.LocalStorage, cfg config.ReportsConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("report cleanup removed files", "count", len(removed))
			}
		}
	}
}
