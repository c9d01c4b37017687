package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-catalog-backend/config"
	_ "career-catalog-backend/docs" // Important for Swagger
	v1 "career-catalog-backend/internal/delivery/http/v1"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/repository/postgres"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/auth"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/database"
	"career-catalog-backend/pkg/events"
	"career-catalog-backend/pkg/logger"
	"career-catalog-backend/pkg/redis"
	"career-catalog-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Career Catalog API
// @version         1.0
// @description     Careers, institutions, their relationships and catalog analytics.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting career catalog backend", "port", cfg.Port)

	// 3. Setup Database
	ctx := context.Background()
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.PoolConfig{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Log.Error("Failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	// 4. Setup Redis (optional)
	analyticsCache := cache.Cache(cache.Noop{})
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, using in-memory rate limiting and no analytics cache", "error", err)
	} else {
		analyticsCache = cache.NewRedisCache(redis.Client())
		defer redis.Close()
	}

	// 5. Setup activity fan-out (optional)
	publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.ActivityExchange)
	if err != nil {
		logger.Log.Warn("RabbitMQ unavailable, activity events are disabled", "error", err)
		publisher, _ = events.NewPublisher("", cfg.ActivityExchange)
	}
	defer publisher.Close()

	// 6. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	careerRepo := postgres.NewCareerRepository(dbPool)
	institutionRepo := postgres.NewInstitutionRepository(dbPool)
	relRepo := postgres.NewRelationshipRepository(dbPool)
	activityRepo := postgres.NewActivityLogRepository(dbPool)

	// 7. Setup UseCases
	validate := validation.New()
	cacheTTL := time.Duration(cfg.AnalyticsCacheTTLSeconds) * time.Second

	authUC := usecase.NewAuthUsecase(userRepo)
	careerUC := usecase.NewCareerUsecase(careerRepo, institutionRepo, relRepo, activityRepo, publisher, analyticsCache, validate)
	institutionUC := usecase.NewInstitutionUsecase(institutionRepo, careerRepo, relRepo, analyticsCache, validate)
	analyticsUC := usecase.NewAnalyticsUsecase(careerRepo, institutionRepo, analyticsCache, cacheTTL)
	bootstrapUC := usecase.NewBootstrapUsecase(careerRepo, institutionRepo, relRepo, analyticsCache, validate, domain.ResolutionMode(cfg.SeedResolutionMode))

	checks := map[string]usecase.Pinger{"database": dbPool.Ping}
	if redis.Client() != nil {
		checks["redis"] = redis.HealthCheck
	}
	healthUC := usecase.NewHealthUsecase(bootstrapUC, checks)

	// 8. Setup Auth Provider (JWKS)
	jwksProvider := auth.NewProvider(cfg.JWKSURL)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:        authUC,
		CareerUC:      careerUC,
		InstitutionUC: institutionUC,
		AnalyticsUC:   analyticsUC,
		BootstrapUC:   bootstrapUC,
		HealthUC:      healthUC,
		JWKSProvider:  jwksProvider,
		Redis:         redis.Client(),
		Config:        cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
