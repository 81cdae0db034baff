package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/enrollease/enrollease-api/api/swagger"
	"github.com/enrollease/enrollease-api/internal/handler"
	"github.com/enrollease/enrollease-api/internal/middleware"
	"github.com/enrollease/enrollease-api/internal/repository"
	"github.com/enrollease/enrollease-api/internal/service"
	"github.com/enrollease/enrollease-api/pkg/cache"
	"github.com/enrollease/enrollease-api/pkg/config"
	"github.com/enrollease/enrollease-api/pkg/database"
	"github.com/enrollease/enrollease-api/pkg/logger"
	"github.com/enrollease/enrollease-api/pkg/mailer"
	corsmiddleware "github.com/enrollease/enrollease-api/pkg/middleware/cors"
	reqidmiddleware "github.com/enrollease/enrollease-api/pkg/middleware/requestid"
)

// @title EnrollEase Roster API
// @version 1.0.0
// @description Academic roster service: students, subjects, enrollments and audit trail
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Roster.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, roster cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	userRepo := repository.NewUserRepository(db)

	numberingSvc := service.NewNumberingService(studentRepo, cfg.Numbering.SuffixWidth, logr)
	recordSvc := service.NewRecordService(recordRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, recordRepo, enrollmentRepo, cacheRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, recordRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, recordRepo, cacheRepo, cfg.Roster.CacheTTL, validate, logr)
	exportSvc := service.NewExportService(subjectSvc, enrollmentSvc, logr)
	authSvc := service.NewAuthService(userRepo, recordRepo, cfg.JWT, validate, logr)
	metricsSvc := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(mailer.NewLogMailer(logr), recordRepo, cfg.Notifications, validate, logr)
	if cfg.Notifications.Enabled {
		notificationSvc.Start(context.Background())
		defer notificationSvc.Stop()
	}

	studentHandler := handler.NewStudentHandler(studentSvc, numberingSvc, metricsSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc, exportSvc, metricsSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, subjectSvc, metricsSvc)
	recordHandler := handler.NewRecordHandler(recordSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Session(cfg.JWT.Secret))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/students", studentHandler.List)
		protected.GET("/students/next-number", studentHandler.NextNumber)
		protected.GET("/students/:number", studentHandler.Get)
		protected.POST("/students", studentHandler.Create)
		protected.PUT("/students/:number", studentHandler.Update)
		protected.DELETE("/students/:number", studentHandler.Delete)
		protected.GET("/students/:number/enrollments", enrollmentHandler.History)

		protected.GET("/subjects", subjectHandler.List)
		protected.GET("/subjects/:code", subjectHandler.Get)
		protected.POST("/subjects", subjectHandler.Create)
		protected.PUT("/subjects/:code", subjectHandler.Update)
		protected.DELETE("/subjects/:code", subjectHandler.Delete)
		protected.GET("/subjects/:code/students", enrollmentHandler.ListEnrolled)
		protected.GET("/subjects/:code/students/available", enrollmentHandler.ListAvailable)
		protected.GET("/subjects/:code/roster/export", subjectHandler.ExportRoster)

		protected.POST("/enrollments", enrollmentHandler.Enroll)
		protected.POST("/enrollments/drop", enrollmentHandler.Drop)

		protected.GET("/records", recordHandler.List)
		protected.GET("/records/count", recordHandler.CountByType)
		protected.GET("/records/:id", recordHandler.Get)
		protected.DELETE("/records/:id", recordHandler.Delete)

		protected.POST("/notifications/email", notificationHandler.SendEmail)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
