package router

import (
	"github.com/gin-gonic/gin"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/handler"
	"clearbooks/internal/middleware"
	"clearbooks/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	docH *handler.DocumentHandler,
	reconH *handler.ReconHandler,
	reviewH *handler.ReviewHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	// Document intake and inspection
	documents := protected.Group("/documents")
	documents.POST("", docH.Upload)
	documents.GET("", docH.List)
	documents.GET("/:id", docH.GetByID)

	// Reconciliation runs
	recon := protected.Group("/recon")
	recon.POST("/runs", middleware.RequireRole(domain.RoleAdmin, domain.RoleReviewer), reconH.StartRun)
	recon.GET("/runs", reconH.ListRuns)
	recon.GET("/runs/:id", reconH.GetRun)

	// Human review of matches and discrepancies
	reviews := protected.Group("/reviews")
	reviews.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleReviewer))
	reviews.GET("/matches", reviewH.ListPendingMatches)
	reviews.POST("/matches/:id/confirm", reviewH.ConfirmMatch)
	reviews.POST("/matches/:id/reject", reviewH.RejectMatch)
	reviews.GET("/discrepancies", reviewH.ListOpenDiscrepancies)
	reviews.POST("/discrepancies/:id/resolve", reviewH.ResolveDiscrepancy)

	return r
}
