package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/sources"
)

// apiParamIDs maps the lowercase :api path parameter to the upstream id it
// names.
var apiParamIDs = map[string]sources.ID{
	"usgs":      sources.USGS,
	"nasa":      sources.NASAEonet,
	"gdacs":     sources.GDACS,
	"reliefweb": sources.ReliefWeb,
	"nws":       sources.NWS,
}

func validAPIParams() []string {
	out := make([]string, 0, len(apiParamIDs))
	for k := range apiParamIDs {
		out = append(out, k)
	}
	return out
}

// resolveAPIParam looks up the :api path param, writing a 400 with
// {error, validApis} on the gin context and returning ok=false if it's
// unrecognized.
func (h *Handler) resolveAPIParam(c *gin.Context) (sources.ID, bool) {
	param := strings.ToLower(c.Param("api"))
	id, ok := apiParamIDs[param]
	if !ok {
		c.JSON(http.StatusBadRequest, models.ValidAPIsResponse{Error: "unknown api", ValidAPIs: validAPIParams()})
		return "", false
	}
	return id, true
}

// CacheStatus godoc
// @Summary Per-source cache and breaker state
// @Tags cache
// @Produce json
// @Success 200 {object} models.CacheStatusResponse
// @Router /api/cache/status [get]
func (h *Handler) CacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, models.CacheStatusResponse{Sources: h.agg.CacheStatus()})
}

// CacheStats godoc
// @Summary Process-wide fetch/cache counters and effective configuration
// @Tags cache
// @Produce json
// @Success 200 {object} models.CacheStatsResponse
// @Router /api/cache/stats [get]
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, models.CacheStatsResponse{
		Stats:  h.agg.Stats(),
		Config: h.configConstants(),
	})
}

// ClearCache godoc
// @Summary Clear every per-source cache slot and the combined cache
// @Tags cache
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /api/cache/clear [post]
func (h *Handler) ClearCache(c *gin.Context) {
	h.agg.ClearAllCaches()
	c.JSON(http.StatusOK, models.StatusResponse{Status: "cleared"})
}

// ClearCacheOne godoc
// @Summary Clear one source's cache slot
// @Tags cache
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ValidAPIsResponse
// @Router /api/cache/clear/{api} [post]
func (h *Handler) ClearCacheOne(c *gin.Context) {
	id, ok := h.resolveAPIParam(c)
	if !ok {
		return
	}
	h.agg.ClearCache(id)
	c.JSON(http.StatusOK, models.StatusResponse{Status: "cleared"})
}

// ResetCacheStats godoc
// @Summary Reset the Stats Counter
// @Tags cache
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /api/cache/stats/reset [post]
func (h *Handler) ResetCacheStats(c *gin.Context) {
	h.agg.ResetStats()
	c.JSON(http.StatusOK, models.StatusResponse{Status: "reset"})
}
