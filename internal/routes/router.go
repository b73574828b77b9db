package routes

import (
	"context"

	"pet-tracker/internal/config"
	"pet-tracker/internal/configsync"
	"pet-tracker/internal/delivery/http/handler"
	domainPet "pet-tracker/internal/domain/pet"
	"pet-tracker/internal/infrastructure/database/postgres"
	"pet-tracker/internal/logger"
	"pet-tracker/internal/middleware"
	"pet-tracker/internal/usecase/device"
	"pet-tracker/internal/usecase/safezone"
	"pet-tracker/internal/usecase/user"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the long-lived components built in main.
type Dependencies struct {
	DB          *postgres.DB
	Broker      *pkgmqtt.Client
	Coordinator *configsync.Coordinator
	Limits      domainPet.Limits
}

// SetupRoutes builds the engine. Background work owned by the router, the rate limiter
// sweeps, ends when ctx is cancelled.
func SetupRoutes(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	ipLimiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	ownerLimiter := middleware.NewRateLimiter(cfg.RateLimit.OwnerRPS, cfg.RateLimit.OwnerBurst)
	context.AfterFunc(ctx, func() {
		ipLimiter.Stop()
		ownerLimiter.Stop()
	})

	// Add middleware in order: request ID, logging, security headers, CORS, body limit, per-IP rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.Environment))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.BodyLimitMiddleware(middleware.DefaultMaxBodyBytes))
	router.Use(middleware.RateLimitMiddleware(ipLimiter, middleware.ClientIPKey))

	healthHandler := handler.NewHealthHandler(deps.DB, deps.Broker)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userRepository := postgres.NewUserRepository(deps.DB)
	petRepository := postgres.NewPetRepository(deps.DB, deps.Limits)
	deviceRepository := postgres.NewDeviceRepository(deps.DB)

	safeZoneService := safezone.NewService(petRepository, deviceRepository, deps.Coordinator, deps.Limits)
	safeZoneHandler := handler.NewSafeZoneHandler(safeZoneService)

	deviceService := device.NewService(deviceRepository, petRepository, userRepository, deps.Coordinator)
	deviceHandler := handler.NewDeviceHandler(deviceService)

	profileService := user.NewService(userRepository, deviceRepository, deps.Coordinator)
	profileHandler := handler.NewProfileHandler(profileService)

	adminHandler := handler.NewAdminHandler(deps.Coordinator, deps.Broker)

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		protected.Use(middleware.RateLimitMiddleware(ownerLimiter, middleware.OwnerKey))
		{
			profileHandler.RegisterProfileRoutes(protected)
			safeZoneHandler.RegisterRoutes(protected)
			deviceHandler.RegisterRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				deviceHandler.RegisterAdminRoutes(admin)
				adminHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
