package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/SscSPs/digital_bank_ledger/cmd/docs"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// Settings carries what the handlers read from configuration.
type Settings struct {
	Auth            middleware.TokenSettings
	ActorLimiter    *limiter.Limiter // nil disables per-actor limits
	IsProduction    bool
	Policy          PolicySource
	CheckHoldPeriod time.Duration
	SweepBatchSize  int
	Gatherer        prometheus.Gatherer // nil disables /metrics
	Ready           func() error        // nil means always ready
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	settings Settings,
	services *portssvc.ServiceContainer,
) {
	registerValidators()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		if settings.Ready != nil {
			if err := settings.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	if settings.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(settings.Gatherer, promhttp.HandlerOpts{})))
	}

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, settings, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, settings.IsProduction)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	settings Settings,
	services *portssvc.ServiceContainer,
) {
	// Every v1 route is attributed to an actor, and limited per actor once known
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(settings.Auth))
	if settings.ActorLimiter != nil {
		v1.Use(middleware.ActorRateLimit(settings.ActorLimiter))
	}

	registerStatusRoutes(v1)
	registerAccountRoutes(v1, services, settings.CheckHoldPeriod)
	registerLedgerRoutes(v1, services.Ledger)
	registerHoldRoutes(v1, services, settings.SweepBatchSize)
	registerTransferRoutes(v1, services.Transfer, settings.Policy)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, isProduction bool) {
	if isProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
