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

	_ "github.com/carelink/family-contact-api/api/swagger"
	"github.com/carelink/family-contact-api/internal/handler"
	"github.com/carelink/family-contact-api/internal/middleware"
	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/repository"
	"github.com/carelink/family-contact-api/internal/service"
	"github.com/carelink/family-contact-api/pkg/cache"
	"github.com/carelink/family-contact-api/pkg/config"
	"github.com/carelink/family-contact-api/pkg/database"
	"github.com/carelink/family-contact-api/pkg/jobs"
	"github.com/carelink/family-contact-api/pkg/logger"
	corsmiddleware "github.com/carelink/family-contact-api/pkg/middleware/cors"
	reqidmiddleware "github.com/carelink/family-contact-api/pkg/middleware/requestid"
	"github.com/carelink/family-contact-api/pkg/response"
	"github.com/carelink/family-contact-api/pkg/storage"
)

// @title Family Contact API
// @version 1.0.0
// @description Contact scheduling and session lifecycle service for children in care.
// @BasePath /api/v1
// @schemes http https
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
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	memberRepo := repository.NewFamilyMemberRepository(db)
	scheduleRepo := repository.NewContactScheduleRepository(db)
	sessionRepo := repository.NewContactSessionRepository(db, scheduleRepo)
	riskRepo := repository.NewRiskAssessmentRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, cfg.Statistics.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	memberSvc := service.NewFamilyMemberService(memberRepo, childRepo, sequenceRepo, validate, logr)
	scheduleSvc := service.NewContactScheduleService(scheduleRepo, memberRepo, childRepo, sequenceRepo, validate, logr)
	sessionSvc := service.NewContactSessionService(sessionRepo, scheduleRepo, childRepo, sequenceRepo, validate, logr)
	riskSvc := service.NewRiskAssessmentService(riskRepo, memberRepo, childRepo, sequenceRepo, validate, logr)
	statisticsSvc := service.NewStatisticsService(memberRepo, scheduleRepo, sessionRepo, riskRepo, cacheSvc, logr, service.StatisticsServiceConfig{
		CacheTTL: cfg.Statistics.CacheTTL,
	})

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to init export storage", "error", err, "dir", cfg.Exports.StorageDir)
	}
	urlSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// The queue dispatches to the worker and the worker's service enqueues on
	// the queue, so the handler is bound through a late-assigned closure.
	var exportWorker *service.ExportWorker
	exportQueue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
		return exportWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(exportJobRepo, sessionRepo, memberRepo, childRepo, exportQueue, fileStore, urlSigner, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, validate, logr)
	exportWorker = service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	memberHandler := handler.NewFamilyMemberHandler(memberSvc)
	scheduleHandler := handler.NewContactScheduleHandler(scheduleSvc)
	sessionHandler := handler.NewContactSessionHandler(sessionSvc)
	riskHandler := handler.NewRiskAssessmentHandler(riskSvc)
	statisticsHandler := handler.NewStatisticsHandler(statisticsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(response.WithMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
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
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Signed download links carry their own authentication.
	api.GET("/exports/download/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", authHandler.Logout)

	members := protected.Group("/family-members")
	members.POST("", middleware.Audit(userRepo, models.AuditActionMemberRegister, "family_member"), memberHandler.Register)
	members.GET("", memberHandler.List)
	members.GET("/expired-dbs-checks", memberHandler.ExpiredChecks)
	members.GET("/:id", memberHandler.Get)
	members.PATCH("/:id", middleware.Audit(userRepo, models.AuditActionMemberUpdate, "family_member"), memberHandler.Update)

	schedules := protected.Group("/schedules")
	schedules.POST("", middleware.Audit(userRepo, models.AuditActionScheduleCreate, "contact_schedule"), scheduleHandler.Create)
	schedules.GET("", scheduleHandler.ListActive)
	schedules.GET("/due-for-review", scheduleHandler.DueForReview)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.PUT("/:id/suspend", middleware.Audit(userRepo, models.AuditActionScheduleSuspend, "contact_schedule"), scheduleHandler.Suspend)
	schedules.PUT("/:id/review", scheduleHandler.MarkReviewed)

	sessions := protected.Group("/sessions")
	sessions.POST("", middleware.Audit(userRepo, models.AuditActionSessionSchedule, "contact_session"), sessionHandler.Schedule)
	sessions.GET("", sessionHandler.List)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PUT("/:id/complete", middleware.Audit(userRepo, models.AuditActionSessionComplete, "contact_session"), sessionHandler.Complete)
	sessions.PUT("/:id/cancel", middleware.Audit(userRepo, models.AuditActionSessionCancel, "contact_session"), sessionHandler.Cancel)

	risks := protected.Group("/risk-assessments")
	risks.POST("", middleware.Audit(userRepo, models.AuditActionAssessmentCreate, "risk_assessment"), riskHandler.Create)
	risks.GET("/current", riskHandler.Current)
	risks.GET("/overdue", riskHandler.Overdue)
	risks.GET("/:id", riskHandler.Get)
	risks.PUT("/:id/approve",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
		middleware.Audit(userRepo, models.AuditActionAssessmentApprove, "risk_assessment"),
		riskHandler.Approve)

	protected.GET("/statistics", statisticsHandler.Get)

	exports := protected.Group("/exports")
	exports.POST("/contact-log", middleware.Audit(userRepo, models.AuditActionExportRequest, "export_job"), exportHandler.Request)
	exports.GET("/:id", exportHandler.Status)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
