package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geosafe-net/geosafe/internal/api/models"
	"github.com/geosafe-net/geosafe/internal/sources"
)

// weatherTypes is the filter set for GET /api/disasters/weather.
var weatherTypes = map[sources.EventType]bool{
	sources.TypeHurricane:    true,
	sources.TypeTornado:      true,
	sources.TypeThunderstorm: true,
	sources.TypeFlood:        true,
	sources.TypeSnow:         true,
	sources.TypeHeat:         true,
}

// Disasters godoc
// @Summary Aggregate disaster catalog
// @Description Returns the merged, ranked, cross-source deduplicated disaster catalog
// @Tags disasters
// @Produce json
// @Success 200 {object} models.DisastersResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/disasters [get]
func (h *Handler) Disasters(c *gin.Context) {
	h.serveFiltered(c, false, nil)
}

// Earthquakes godoc
// @Summary Earthquake events only
// @Tags disasters
// @Produce json
// @Success 200 {object} models.DisastersResponse
// @Router /api/disasters/earthquakes [get]
func (h *Handler) Earthquakes(c *gin.Context) {
	h.serveFiltered(c, false, func(e sources.Event) bool { return e.Type == sources.TypeEarthquake })
}

// Weather godoc
// @Summary Weather-related events only
// @Tags disasters
// @Produce json
// @Success 200 {object} models.DisastersResponse
// @Router /api/disasters/weather [get]
func (h *Handler) Weather(c *gin.Context) {
	h.serveFiltered(c, false, func(e sources.Event) bool { return weatherTypes[e.Type] })
}

// Refresh godoc
// @Summary Force-refresh the aggregate catalog
// @Description Bypasses the combined-cache freshness check; the circuit breaker is still honored
// @Tags disasters
// @Produce json
// @Success 200 {object} models.DisastersResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/disasters/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	h.serveFiltered(c, true, nil)
}

// DisasterStats godoc
// @Summary Disaster counts by type, severity band, and source
// @Tags disasters
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Router /api/disasters/stats [get]
func (h *Handler) DisasterStats(c *gin.Context) {
	result, err := h.agg.Fetch(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "aggregation failed", Message: err.Error()})
		return
	}

	byType := make(map[sources.EventType]int)
	bySource := make(map[sources.ID]int)
	var buckets models.SeverityBuckets
	for _, e := range result.Disasters {
		byType[e.Type]++
		bySource[e.Source]++
		switch {
		case e.Severity >= 8:
			buckets.Critical++
		case e.Severity >= 5:
			buckets.Warning++
		default:
			buckets.Minor++
		}
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		Total:      len(result.Disasters),
		ByType:     byType,
		BySeverity: buckets,
		BySource:   bySource,
		Timestamp:  timeNow(),
	})
}

// serveFiltered runs the aggregate fetch, optionally force-refreshing, and
// writes a DisastersResponse restricted to events matching keep (nil keeps
// everything). Only the case where zero sources produced anything and the
// combined cache is past stale-usability surfaces as a 500; anything less is
// served best-effort.
func (h *Handler) serveFiltered(c *gin.Context, force bool, keep func(sources.Event) bool) {
	result, err := h.agg.Fetch(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "aggregation failed", Message: err.Error()})
		return
	}

	events := result.Disasters
	if keep != nil {
		filtered := make([]sources.Event, 0, len(events))
		for _, e := range events {
			if keep(e) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, models.DisastersResponse{
		Disasters: events,
		SafeZones: toSafeZoneResponses(h.safeZones),
		Meta: models.Meta{
			Timestamp:      timeNow(),
			TotalDisasters: len(events),
			TotalSafeZones: len(h.safeZones),
			Sources:        result.Sources,
		},
	})
}
