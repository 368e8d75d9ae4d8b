package api

import (
	"net/http"

	"github.com/ngandimoun/saydo-ai-sub006/internal/auth/delivery"
	authdomain "github.com/ngandimoun/saydo-ai-sub006/internal/auth/domain"
	authUsecase "github.com/ngandimoun/saydo-ai-sub006/internal/auth/usecase"
	patternDelivery "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, patternHandler *patternDelivery.PatternHandler) {
	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Pattern routes (protected)
		patterns := api.Group("/patterns")
		patterns.Use(delivery.AuthMiddleware(authUsecase))
		{
			patterns.POST("/analyze", patternHandler.Analyze)
			patterns.GET("", patternHandler.GetPatterns)
			patterns.DELETE("", patternHandler.DeletePatterns)
		}

		// Settings routes (service role) - Runtime configuration
		settings := api.Group("/settings")
		settings.Use(delivery.AuthMiddleware(authUsecase), delivery.RequireRole(authdomain.RoleService))
		{
			settings.GET("/analysis", GetAnalysisSettings)
			settings.PUT("/analysis", UpdateAnalysisSettings)
		}
	}
}
