package v1

import (
	"time"

	"career-catalog-backend/config"
	"career-catalog-backend/internal/delivery/http/middleware"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC        domain.AuthUsecase
	CareerUC      domain.CareerUsecase
	InstitutionUC domain.InstitutionUsecase
	AnalyticsUC   domain.AnalyticsUsecase
	BootstrapUC   domain.BootstrapUsecase
	HealthUC      usecase.HealthUsecase
	JWKSProvider  *auth.Provider
	Redis         *goredis.Client // nil selects the in-memory rate limiter
	Config        *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	// Handlers pass *gin.Context to usecases; let it carry the request deadline.
	r.ContextWithFallback = true

	limiter := middleware.NewRateLimiter(deps.Redis)
	authn := middleware.NewAuthenticator(deps.JWKSProvider, deps.Config, deps.AuthUC)

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, deps.Config.GinMode)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CSRFMiddleware())
	r.Use(limiter.Middleware(middleware.GlobalRateLimitConfig(
		deps.Config.RateLimitGlobalThreshold,
		time.Duration(deps.Config.RateLimitWindowSeconds)*time.Second,
	)))

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes; a valid token attributes views to the caller
	public := v1.Group("")
	public.Use(authn.OptionalAuth())

	// Protected routes
	protected := v1.Group("")
	protected.Use(authn.AuthMiddleware())

	admin := v1.Group("")
	admin.Use(authn.AuthMiddleware(), middleware.RequireAdmin())

	{
		NewCareerHandler(public, protected, admin, deps.CareerUC)
		NewAnalyticsHandler(public, deps.AnalyticsUC)
		NewInstitutionHandler(public, admin, deps.InstitutionUC)
		NewAuthHandler(protected, deps.AuthUC)
		NewAdminHandler(admin, deps.BootstrapUC, limiter.Middleware(middleware.AdminRateLimitConfig()))
	}

	return r
}
