package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mjgskyblade/echopay-sub000/internal/config"
	"github.com/mjgskyblade/echopay-sub000/internal/http/handlers"
	"github.com/mjgskyblade/echopay-sub000/internal/http/middleware"
)

func SetupRouter(
	cfg *config.Config,
	fraudReportHandler *handlers.FraudReportHandler,
	reversalHandler *handlers.ReversalHandler,
	arbitrationHandler *handlers.ArbitrationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api/v1")

	api.GET("/ws", wsHandler.Handle)

	// Intake is rate limited so one reporter cannot flood the case store.
	reportRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	api.POST("/fraud-reports", reportRateLimit, fraudReportHandler.SubmitReport)

	api.GET("/fraud-cases", fraudReportHandler.ListCases)
	api.GET("/fraud-cases/active", fraudReportHandler.ListActiveCases)
	api.GET("/fraud-cases/:id", middleware.UUIDValidator("id"), fraudReportHandler.GetCase)
	api.PUT("/fraud-cases/:id/status", middleware.UUIDValidator("id"), fraudReportHandler.UpdateStatus)
	api.POST("/fraud-cases/:id/evidence", middleware.UUIDValidator("id"), fraudReportHandler.AddEvidence)

	api.POST("/reversals", reversalHandler.RequestReversal)
	api.GET("/reversals/statistics", reversalHandler.Statistics)
	api.GET("/reversals/cases/:id/audit", middleware.UUIDValidator("id"), reversalHandler.AuditTrail)

	arbitration := api.Group("/arbitration")
	{
		arbitration.GET("/unassigned", arbitrationHandler.ListUnassigned)
		arbitration.GET("/statistics", arbitrationHandler.Statistics)
		arbitration.GET("/arbitrators/:id/cases", middleware.UUIDValidator("id"), arbitrationHandler.ListArbitratorCases)
		arbitration.GET("/:id", middleware.UUIDValidator("id"), arbitrationHandler.GetCase)
		arbitration.POST("/:id/assign", middleware.UUIDValidator("id"), arbitrationHandler.AssignCase)
		arbitration.POST("/:id/decision", middleware.UUIDValidator("id"), arbitrationHandler.SubmitDecision)
	}

	return r
}
