package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geosafe-net/geosafe/internal/api/handlers"
	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/config"
)

// RegisterRoutes wires the gateway's full route surface onto r.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/health", h.Health)

	if cfg == nil || cfg.API.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	apiGroup := r.Group("/api")

	apiGroup.GET("/disasters", h.Disasters)
	apiGroup.GET("/disasters/earthquakes", h.Earthquakes)
	apiGroup.GET("/disasters/weather", h.Weather)
	apiGroup.GET("/disasters/stats", h.DisasterStats)
	apiGroup.POST("/disasters/refresh", h.Refresh)

	apiGroup.GET("/safe-zones", h.SafeZones)
	apiGroup.GET("/sources", h.Sources)

	apiGroup.GET("/cache/status", h.CacheStatus)
	apiGroup.GET("/cache/stats", h.CacheStats)
	apiGroup.POST("/cache/clear", h.ClearCache)
	apiGroup.POST("/cache/clear/:api", h.ClearCacheOne)
	apiGroup.POST("/cache/stats/reset", h.ResetCacheStats)

	apiGroup.POST("/circuit-breaker/reset", h.ResetCircuitBreakers)
	apiGroup.POST("/circuit-breaker/reset/:api", h.ResetCircuitBreakerOne)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	})
}
