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

	_ "github.com/nimarzv/transfer-review-api/api/swagger"
	"github.com/nimarzv/transfer-review-api/internal/handler"
	"github.com/nimarzv/transfer-review-api/internal/middleware"
	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/repository"
	"github.com/nimarzv/transfer-review-api/internal/service"
	"github.com/nimarzv/transfer-review-api/pkg/cache"
	"github.com/nimarzv/transfer-review-api/pkg/config"
	"github.com/nimarzv/transfer-review-api/pkg/database"
	"github.com/nimarzv/transfer-review-api/pkg/logger"
	corsmiddleware "github.com/nimarzv/transfer-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nimarzv/transfer-review-api/pkg/middleware/requestid"
	"github.com/nimarzv/transfer-review-api/pkg/storage"
)

// @title Transfer Review API
// @version 1.0.0
// @description Appeal eligibility review workflow for exception transfer requests
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	documents, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	applicantRepo := repository.NewApplicantRepository(db)
	reasonRepo := repository.NewReasonRepository(db)
	geoRepo := repository.NewGeographyRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Review.QueueCacheTTL, logr, cfg.Review.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "transfer-review-api",
		Audience:           []string{"transfer-review"},
	})
	scopeSvc := service.NewScopeService(geoRepo, logr)
	queueSvc := service.NewQueueService(appealRepo, reasonRepo, yearRepo, applicantRepo, scopeSvc, cacheSvc, signer, userRepo, cfg.Review.QueueCacheTTL, logr)
	reviewSvc := service.NewReviewService(appealRepo, applicantRepo, scopeSvc, reasonRepo, cacheSvc, userRepo, logr)
	reasonSvc := service.NewReasonService(reasonRepo, cacheSvc, cfg.Review.ReasonsTTL, logr)
	docSvc := service.NewDocumentService(signer, documents, userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	reviewHandler := handler.NewReviewHandler(queueSvc, reviewSvc)
	reasonHandler := handler.NewReasonHandler(reasonSvc)
	documentHandler := handler.NewDocumentHandler(docSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/stats", metricsHandler.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authed := auth.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/logout", authHandler.Logout)
	authed.PUT("/password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	// Signed token is the sole authorization for document downloads.
	api.GET("/appeals/documents/:token", documentHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/reasons", reasonHandler.List)

	review := protected.Group("")
	review.Use(middleware.RequireRoles(models.RoleDistrictExpert, models.RoleProvinceExpert))
	review.GET("/appeals", reviewHandler.List)
	review.GET("/appeals/:id", middleware.Audit(userRepo, models.AuditActionAppealView, "appeal_request"), reviewHandler.Get)
	review.POST("/appeals/review", reviewHandler.ApplyReview)
	review.POST("/appeals/decision", reviewHandler.Decide)
	if cfg.Exports.Enabled {
		review.GET("/appeals/export", reviewHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
